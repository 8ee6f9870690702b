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
	"fmt"
	"log/slog"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/cardinalhq/settingsd/internal/settings"
)

// missingSentinel marks a cached "no row". It is not valid JSON, so it never
// collides with a stored value.
const missingSentinel = "\x00missing"

// Redis is a cache shared between settingsd instances. Redis failures degrade
// to uncached reads rather than failing them.
type Redis struct {
	pool   *redis.Pool
	ttl    time.Duration
	prefix string
}

var _ settings.Cache = (*Redis)(nil)

func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(2*time.Second),
				redis.DialWriteTimeout(2*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func NewRedis(pool *redis.Pool, ttl time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = "settings"
	}
	return &Redis{pool: pool, ttl: ttl, prefix: prefix}
}

// RedisKey is <prefix>:<type>:<tenant>:<user>:<name>.
func (r *Redis) RedisKey(k settings.Key) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", r.prefix, k.Scope.Type, k.Scope.TenantID, k.Scope.UserID, k.Name)
}

func (r *Redis) ttlSeconds() int {
	if s := int(r.ttl / time.Second); s > 0 {
		return s
	}
	return 1
}

func (r *Redis) Fetch(ctx context.Context, key settings.Key, load settings.LoadFunc) (settings.CacheEntry, bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		slog.Warn("Settings cache unavailable, reading from storage", slog.Any("error", err))
		e, err := load(ctx)
		return e, false, err
	}
	defer func() { _ = conn.Close() }()

	rk := r.RedisKey(key)
	data, err := redis.Bytes(redis.DoContext(conn, ctx, "GET", rk))
	switch {
	case err == nil:
		return decodeEntry(data), true, nil
	case errors.Is(err, redis.ErrNil):
	default:
		slog.Warn("Settings cache read failed", slog.String("key", rk), slog.Any("error", err))
		e, err := load(ctx)
		return e, false, err
	}

	entry, err := load(ctx)
	if err != nil {
		return settings.CacheEntry{}, false, err
	}
	if _, err := redis.DoContext(conn, ctx, "SETEX", rk, r.ttlSeconds(), encodeEntry(entry)); err != nil {
		slog.Warn("Settings cache write failed", slog.String("key", rk), slog.Any("error", err))
	}
	return entry, false, nil
}

func (r *Redis) Invalidate(ctx context.Context, keys ...settings.Key) {
	if len(keys) == 0 {
		return
	}
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		slog.Error("Failed to invalidate settings cache", slog.Int("keys", len(keys)), slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	args := make(redis.Args, 0, len(keys))
	for _, k := range keys {
		args = args.Add(r.RedisKey(k))
	}
	if _, err := redis.DoContext(conn, ctx, "DEL", args...); err != nil {
		slog.Error("Failed to invalidate settings cache", slog.Int("keys", len(keys)), slog.Any("error", err))
	}
}

func (r *Redis) Close() error {
	return r.pool.Close()
}

func encodeEntry(e settings.CacheEntry) []byte {
	if e.Missing {
		return []byte(missingSentinel)
	}
	return e.Value
}

func decodeEntry(data []byte) settings.CacheEntry {
	if string(data) == missingSentinel {
		return settings.CacheEntry{Missing: true}
	}
	return settings.CacheEntry{Value: data}
}
