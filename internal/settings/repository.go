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

package settings

import (
	"context"
	"encoding/json"
)

// Repository stores raw setting values. Every layer of the decorator chain
// and the storage backend implement it.
type Repository interface {
	// Get returns ErrNotFound if no row exists for the key.
	Get(ctx context.Context, key Key) (json.RawMessage, error)
	Set(ctx context.Context, key Key, value json.RawMessage) error
	// Delete is a no-op if no row exists.
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context, scope Scope) ([]Entry, error)
}

// Batcher is implemented by repositories that can write several values atomically.
type Batcher interface {
	SetMany(ctx context.Context, values []KeyValue) error
}

// Layer wraps a Repository with one concern.
type Layer func(next Repository) Repository

// Chain applies layers so that layers[0] is the outermost.
func Chain(base Repository, layers ...Layer) Repository {
	repo := base
	for i := len(layers) - 1; i >= 0; i-- {
		repo = layers[i](repo)
	}
	return repo
}

// SetMany writes values through repo, atomically when repo is a Batcher.
func SetMany(ctx context.Context, repo Repository, values []KeyValue) error {
	if b, ok := repo.(Batcher); ok {
		return b.SetMany(ctx, values)
	}
	for _, kv := range values {
		if err := repo.Set(ctx, kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// StandardOptions selects the optional collaborators of Standard.
type StandardOptions struct {
	Authorizer Authorizer
	Cache      Cache
	Encrypter  Encrypter
}

// Standard builds existence -> permission -> validation -> encryption -> cache -> base.
// A nil Authorizer uses RoleAuthorizer; a nil Cache disables caching.
func Standard(reg *Registry, base Repository, opts StandardOptions) Repository {
	authz := opts.Authorizer
	if authz == nil {
		authz = RoleAuthorizer{}
	}
	layers := []Layer{
		WithExistence(reg),
		WithPermissions(reg, authz),
		WithValidation(reg),
		WithEncryption(reg, opts.Encrypter),
	}
	if opts.Cache != nil {
		layers = append(layers, WithCache(opts.Cache))
	}
	return Chain(base, layers...)
}
