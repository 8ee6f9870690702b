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

package apikey

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jellydator/ttlcache/v3"

	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/settingsdb"
)

// InitialAdminKeyEnv names a bootstrap admin key that is honored only while
// the api_keys table is empty.
const InitialAdminKeyEnv = "SETTINGSD_INITIAL_ADMIN_API_KEY"

type KeyStore interface {
	GetAPIKeyByHash(ctx context.Context, keyHash string) (settingsdb.ApiKey, error)
	ListAPIKeys(ctx context.Context) ([]settingsdb.ApiKey, error)
}

// DBProvider authenticates keys stored as hashes in the api_keys table.
type DBProvider struct {
	db    KeyStore
	cache *ttlcache.Cache[string, *settings.Principal]
}

var _ Provider = (*DBProvider)(nil)

// NewDBProvider looks keys up by hash. Successful lookups are cached for ttl,
// so a deleted key keeps working until its entry expires.
func NewDBProvider(db KeyStore, ttl time.Duration) *DBProvider {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *settings.Principal](ttl),
		ttlcache.WithDisableTouchOnHit[string, *settings.Principal](),
	)
	go cache.Start()
	return &DBProvider{db: db, cache: cache}
}

// Close stops the cache expiry goroutine.
func (p *DBProvider) Close() {
	p.cache.Stop()
}

func (p *DBProvider) Authenticate(ctx context.Context, apiKey string) (*settings.Principal, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	keyHash := HashAPIKey(apiKey)

	if item := p.cache.Get(keyHash); item != nil {
		principal := *item.Value()
		return &principal, nil
	}

	row, err := p.db.GetAPIKeyByHash(ctx, keyHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.initialAdmin(ctx, apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	principal := &settings.Principal{
		ID:       row.ID.String(),
		Name:     row.Name,
		UserID:   row.UserID,
		TenantID: row.TenantID,
		Roles:    row.Roles,
	}
	p.cache.Set(keyHash, principal, ttlcache.DefaultTTL)
	copied := *principal
	return &copied, nil
}

func (p *DBProvider) initialAdmin(ctx context.Context, apiKey string) (*settings.Principal, error) {
	initial := os.Getenv(InitialAdminKeyEnv)
	if initial == "" || subtle.ConstantTimeCompare([]byte(initial), []byte(apiKey)) != 1 {
		return nil, ErrInvalidAPIKey
	}
	keys, err := p.db.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	if len(keys) > 0 {
		slog.Warn("Initial admin API key ignored because API keys exist", slog.Int("keys", len(keys)))
		return nil, ErrInvalidAPIKey
	}
	return &settings.Principal{ID: "initial-admin", Name: "initial-admin", Roles: []string{settings.RoleAdmin}}, nil
}

// Creator stores new keys.
type Creator interface {
	CreateAPIKey(ctx context.Context, arg settingsdb.CreateAPIKeyParams) (settingsdb.ApiKey, error)
}

// CreateParams describes a key to create. The key itself is generated.
type CreateParams struct {
	Name        string
	Description string
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Roles       []string
}

// Create generates a key, stores its hash, and returns the plaintext key.
// The plaintext cannot be recovered later.
func Create(ctx context.Context, db Creator, params CreateParams) (string, settingsdb.ApiKey, error) {
	key, err := Generate()
	if err != nil {
		return "", settingsdb.ApiKey{}, err
	}
	var desc *string
	if params.Description != "" {
		desc = &params.Description
	}
	roles := params.Roles
	if roles == nil {
		roles = []string{}
	}
	row, err := db.CreateAPIKey(ctx, settingsdb.CreateAPIKeyParams{
		KeyHash:     HashAPIKey(key),
		Name:        params.Name,
		Description: desc,
		UserID:      params.UserID,
		TenantID:    params.TenantID,
		Roles:       roles,
	})
	if err != nil {
		return "", settingsdb.ApiKey{}, fmt.Errorf("failed to store API key: %w", err)
	}
	return key, row, nil
}
