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

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/api"
	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/apikey"
	"github.com/cardinalhq/settingsd/internal/dbopen"
	"github.com/cardinalhq/settingsd/internal/debugging"
	"github.com/cardinalhq/settingsd/internal/healthcheck"
	"github.com/cardinalhq/settingsd/settingsdb"
)

var serveMemory bool

func init() {
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Keep settings in memory instead of PostgreSQL (development only)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the settings HTTP API",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve(serveMemory)
	},
}

func serve(memory bool) error {
	doneCtx, doneFx, err := setupTelemetry("settingsd", nil)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := doneFx(); err != nil {
			slog.Error("Error shutting down telemetry", slog.Any("error", err))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	health := healthcheck.NewChecker()

	a, err := newApp(doneCtx, cfg, appOptions{
		memory: memory,
		open: func(ctx context.Context) (*settingsdb.Store, error) {
			return settingsdb.SettingsDBStore(ctx, dbopen.WaitForMigrations())
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	keys, closeKeys, err := newKeyProvider(cfg.APIKeys, a.store)
	if err != nil {
		return err
	}
	defer closeKeys()

	if a.store != nil {
		health.AddProbe("database", a.store.Ping)
	}

	debugging.RunPprof(doneCtx, cfg.Debug.PprofAddr)

	health.SetStatus(healthcheck.StatusHealthy)
	return api.NewServer(a.manager, keys, health).Run(doneCtx, cfg.HTTP)
}

// newKeyProvider chains the key file with the api_keys table. The table is
// only consulted when a store is open and cfg.Database is set.
func newKeyProvider(cfg config.APIKeysConfig, store *settingsdb.Store) (apikey.Provider, func(), error) {
	var providers []apikey.Provider
	closer := func() {}

	if cfg.File != "" {
		fp, err := apikey.NewFileProvider(cfg.File)
		if err != nil {
			return nil, closer, fmt.Errorf("failed to load API keys: %w", err)
		}
		providers = append(providers, fp)
	}

	if cfg.Database && store != nil {
		dbp := apikey.NewDBProvider(store, cfg.CacheTTL)
		providers = append(providers, dbp)
		closer = dbp.Close
	}

	if len(providers) == 0 {
		slog.Warn("No API key sources configured; every request will be rejected")
	}
	return apikey.NewChain(providers...), closer, nil
}
