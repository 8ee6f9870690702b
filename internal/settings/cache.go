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
	"errors"
)

// CacheEntry is a cached stored payload. Missing marks a cached ErrNotFound.
type CacheEntry struct {
	Value   json.RawMessage `json:"v,omitempty"`
	Missing bool            `json:"m,omitempty"`
}

// LoadFunc produces the entry for a cache miss.
type LoadFunc func(ctx context.Context) (CacheEntry, error)

// Cache is a read-through cache of stored values.
//
// Fetch returns the cached entry for key, calling load on a miss and caching
// what it returns. hit is false whenever the entry came from load, including
// for callers that waited on another caller's load. Errors from load are
// returned and not cached.
type Cache interface {
	Fetch(ctx context.Context, key Key, load LoadFunc) (entry CacheEntry, hit bool, err error)
	Invalidate(ctx context.Context, keys ...Key)
	Close() error
}

type cacheLayer struct {
	next  Repository
	cache Cache
}

func WithCache(c Cache) Layer {
	return func(next Repository) Repository {
		return &cacheLayer{next: next, cache: c}
	}
}

func (l *cacheLayer) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	entry, hit, err := l.cache.Fetch(ctx, key, func(ctx context.Context) (CacheEntry, error) {
		raw, err := l.next.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return CacheEntry{Missing: true}, nil
		}
		if err != nil {
			return CacheEntry{}, err
		}
		return CacheEntry{Value: raw}, nil
	})
	recordCacheLookup(ctx, key, hit)
	if err != nil {
		return nil, err
	}
	if entry.Missing {
		return nil, ErrNotFound
	}
	return entry.Value, nil
}

// Writes invalidate only on success so a failed write keeps the cached value.
func (l *cacheLayer) Set(ctx context.Context, key Key, value json.RawMessage) error {
	if err := l.next.Set(ctx, key, value); err != nil {
		return err
	}
	l.cache.Invalidate(ctx, key)
	return nil
}

func (l *cacheLayer) SetMany(ctx context.Context, values []KeyValue) error {
	keys := make([]Key, len(values))
	for i, kv := range values {
		keys[i] = kv.Key
	}
	if err := SetMany(ctx, l.next, values); err != nil {
		return err
	}
	l.cache.Invalidate(ctx, keys...)
	return nil
}

func (l *cacheLayer) Delete(ctx context.Context, key Key) error {
	if err := l.next.Delete(ctx, key); err != nil {
		return err
	}
	l.cache.Invalidate(ctx, key)
	return nil
}

func (l *cacheLayer) List(ctx context.Context, scope Scope) ([]Entry, error) {
	return l.next.List(ctx, scope)
}
