// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/builtin"
	"github.com/cardinalhq/settingsd/internal/crypt"
	"github.com/cardinalhq/settingsd/internal/fly"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/internal/settingscache"
	"github.com/cardinalhq/settingsd/settingsdb"
)

// storeOpener connects to the settings database.
type storeOpener func(ctx context.Context) (*settingsdb.Store, error)

type appOptions struct {
	// memory keeps settings in process instead of opening the database.
	memory bool
	open   storeOpener
}

// app holds everything a command needs to read and write settings.
type app struct {
	cfg       *config.Config
	registry  *settings.Registry
	store     *settingsdb.Store
	cache     settings.Cache
	publisher *fly.EventPublisher
	manager   *settings.Manager
}

func newRegistry(cfg *config.Config) (*settings.Registry, error) {
	reg := settings.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register builtin settings: %w", err)
	}
	if cfg.Definitions.File != "" {
		if err := reg.LoadFile(cfg.Definitions.File); err != nil {
			return nil, fmt.Errorf("failed to load definitions: %w", err)
		}
		slog.Info("Loaded setting definitions", slog.String("file", cfg.Definitions.File), slog.Int("count", reg.Len()))
	}
	return reg, nil
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	if a.registry, err = newRegistry(cfg); err != nil {
		return a, err
	}

	var base settings.Repository
	if opts.memory {
		slog.Warn("Using in-memory settings storage; values are lost on exit")
		base = settings.NewMemoryRepository()
	} else {
		open := opts.open
		if open == nil {
			open = func(ctx context.Context) (*settingsdb.Store, error) {
				return settingsdb.SettingsDBStore(ctx)
			}
		}
		if a.store, err = open(ctx); err != nil {
			return a, fmt.Errorf("failed to connect to settings database: %w", err)
		}
		base = settingsdb.NewRepository(a.store)
	}

	if a.cache, err = settingscache.New(cfg.Cache); err != nil {
		return a, err
	}

	stdOpts := settings.StandardOptions{Cache: a.cache}
	if cfg.Encryption.Enabled() {
		enc, err := crypt.Load(cfg.Encryption.KeysetFile, cfg.Encryption.Keyset)
		if err != nil {
			return a, fmt.Errorf("failed to load encryption keyset: %w", err)
		}
		slog.Info("Encryption enabled", slog.Uint64("primaryKeyID", uint64(enc.PrimaryKeyID())))
		stdOpts.Encrypter = enc
	}

	var mgrOpts []settings.ManagerOption
	if cfg.Events.Enabled {
		producer, err := fly.NewFactory(&cfg.Events).CreateProducer()
		if err != nil {
			return a, fmt.Errorf("failed to create event producer: %w", err)
		}
		a.publisher = fly.NewEventPublisher(producer, cfg.Events.Topic)
		mgrOpts = append(mgrOpts, settings.WithPublisher(a.publisher))
		slog.Info("Publishing setting changes", slog.Any("brokers", cfg.Events.Brokers), slog.String("topic", cfg.Events.Topic))
	}

	a.manager = settings.NewManager(a.registry, settings.Standard(a.registry, base, stdOpts), mgrOpts...)
	return a, nil
}

// Close releases the publisher, cache and database pool, in that order.
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", slog.Any("error", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("Failed to close settings cache", slog.Any("error", err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
