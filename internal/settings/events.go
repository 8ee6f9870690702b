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
	"time"
)

type Action string

const (
	ActionSet   Action = "set"
	ActionReset Action = "reset"
)

// ChangeEvent describes one committed write.
type ChangeEvent struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Scope  Scope           `json:"scope"`
	Action Action          `json:"action"`
	Value  json.RawMessage `json:"value,omitempty"`
	Actor  string          `json:"actor,omitempty"`
	Time   time.Time       `json:"time"`
}

// Publisher receives change events after the write has been committed.
type Publisher interface {
	Publish(ctx context.Context, events ...ChangeEvent) error
}

type PublisherFunc func(ctx context.Context, events ...ChangeEvent) error

func (f PublisherFunc) Publish(ctx context.Context, events ...ChangeEvent) error {
	return f(ctx, events...)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...ChangeEvent) error { return nil }
