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

package settingscache

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/cardinalhq/settingsd/internal/settings"
)

var errLoadAbandoned = errors.New("concurrent cache load failed")

// Memory is a process-local cache with per-entry TTL. Concurrent misses for
// the same key share one load. Hits do not extend an entry's TTL, so a value
// is never older than the TTL.
type Memory struct {
	cache *ttlcache.Cache[settings.Key, settings.CacheEntry]
	group singleflight.Group
}

var _ settings.Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	cache := ttlcache.New(
		ttlcache.WithTTL[settings.Key, settings.CacheEntry](ttl),
		ttlcache.WithDisableTouchOnHit[settings.Key, settings.CacheEntry](),
	)
	go cache.Start()
	return &Memory{cache: cache}
}

// Fetch builds a loader per call so the load runs with the caller's context.
func (m *Memory) Fetch(ctx context.Context, key settings.Key, load settings.LoadFunc) (settings.CacheEntry, bool, error) {
	if item := m.cache.Get(key); item != nil {
		return item.Value(), true, nil
	}

	var loadErr error
	loader := ttlcache.LoaderFunc[settings.Key, settings.CacheEntry](
		func(c *ttlcache.Cache[settings.Key, settings.CacheEntry], k settings.Key) *ttlcache.Item[settings.Key, settings.CacheEntry] {
			entry, err := load(ctx)
			if err != nil {
				loadErr = err
				return nil
			}
			return c.Set(k, entry, ttlcache.DefaultTTL)
		},
	)
	suppressed := ttlcache.NewSuppressedLoader[settings.Key, settings.CacheEntry](loader, &m.group)

	item := m.cache.Get(key, ttlcache.WithLoader[settings.Key, settings.CacheEntry](suppressed))
	if item == nil {
		if loadErr != nil {
			return settings.CacheEntry{}, false, loadErr
		}
		return settings.CacheEntry{}, false, errLoadAbandoned
	}
	return item.Value(), false, nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...settings.Key) {
	for _, k := range keys {
		m.cache.Delete(k)
	}
}

func (m *Memory) Len() int {
	return m.cache.Len()
}

// Close stops the expiry goroutine.
func (m *Memory) Close() error {
	m.cache.Stop()
	return nil
}
