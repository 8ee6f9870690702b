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

	"github.com/cardinalhq/settingsd/internal/settings"
)

// None loads on every Fetch.
type None struct{}

var _ settings.Cache = None{}

func (None) Fetch(ctx context.Context, _ settings.Key, load settings.LoadFunc) (settings.CacheEntry, bool, error) {
	e, err := load(ctx)
	return e, false, err
}

func (None) Invalidate(context.Context, ...settings.Key) {}

func (None) Close() error { return nil }
