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
	"fmt"
	"strings"
	"time"

	"github.com/cardinalhq/settingsd/internal/settings"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

const DefaultTTL = 5 * time.Minute

// Options selects and configures a backend. KeyPrefix namespaces Redis keys
// and defaults to "settings".
type Options struct {
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// New builds the backend named by opts.Backend. An empty backend means memory.
func New(opts Options) (settings.Cache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemory(ttl), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache backend needs an address")
		}
		return NewRedis(NewRedisPool(opts.RedisAddr), ttl, opts.KeyPrefix), nil
	case BackendNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
