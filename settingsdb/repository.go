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

package settingsdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/settingsd/internal/settings"
)

// TxRunner runs fn inside a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(Querier) error) error
}

// Repository stores setting values in the settings table. It is the base of
// the settings decorator chain.
type Repository struct {
	q  Querier
	tx TxRunner
}

var (
	_ settings.Repository = (*Repository)(nil)
	_ settings.Batcher    = (*Repository)(nil)
)

func NewRepository(store *Store) *Repository {
	return &Repository{q: store, tx: store}
}

// NewRepositoryFromQuerier builds a Repository without transaction support;
// batches are written one row at a time.
func NewRepositoryFromQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) Get(ctx context.Context, key settings.Key) (json.RawMessage, error) {
	value, err := r.q.GetSetting(ctx, GetSettingParams{
		Key:      key.Name,
		Type:     string(key.Scope.Type),
		TenantID: key.Scope.TenantID,
		UserID:   key.Scope.UserID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *Repository) Set(ctx context.Context, key settings.Key, value json.RawMessage) error {
	if err := upsert(ctx, r.q, key, value); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// SetMany writes every value in one transaction.
func (r *Repository) SetMany(ctx context.Context, values []settings.KeyValue) error {
	write := func(q Querier) error {
		for _, kv := range values {
			if err := upsert(ctx, q, kv.Key, kv.Value); err != nil {
				return fmt.Errorf("failed to store setting %s: %w", kv.Key, err)
			}
		}
		return nil
	}
	if r.tx == nil {
		return write(r.q)
	}
	return r.tx.WithTx(ctx, write)
}

func upsert(ctx context.Context, q Querier, key settings.Key, value json.RawMessage) error {
	return q.UpsertSetting(ctx, UpsertSettingParams{
		Key:      key.Name,
		Type:     string(key.Scope.Type),
		TenantID: key.Scope.TenantID,
		UserID:   key.Scope.UserID,
		Value:    value,
	})
}

func (r *Repository) Delete(ctx context.Context, key settings.Key) error {
	_, err := r.q.DeleteSetting(ctx, DeleteSettingParams{
		Key:      key.Name,
		Type:     string(key.Scope.Type),
		TenantID: key.Scope.TenantID,
		UserID:   key.Scope.UserID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, scope settings.Scope) ([]settings.Entry, error) {
	rows, err := r.q.ListSettings(ctx, ListSettingsParams{
		Type:     string(scope.Type),
		TenantID: scope.TenantID,
		UserID:   scope.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings for %s: %w", scope, err)
	}
	entries := make([]settings.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, settings.Entry{
			Name:      row.Key,
			Value:     row.Value,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return entries, nil
}
