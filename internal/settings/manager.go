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
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/cardinalhq/settingsd/internal/idgen"
	"github.com/cardinalhq/settingsd/internal/logctx"
)

// Value is the effective value of a setting for a scope.
type Value struct {
	Key    string `json:"key"`
	Scope  Scope  `json:"scope"`
	Value  any    `json:"value"`
	Source Source `json:"source"`
}

// Manager is the typed entry point to settings. It resolves fallbacks and
// publishes change events; everything else is done by the repository chain.
type Manager struct {
	registry  *Registry
	repo      Repository
	codec     Codec
	publisher Publisher
	now       func() time.Time
}

type ManagerOption func(*Manager)

func WithCodec(c Codec) ManagerOption {
	return func(m *Manager) { m.codec = c }
}

func WithPublisher(p Publisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

func withClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager wraps repo, which is normally built with Standard.
func NewManager(reg *Registry, repo Repository, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:  reg,
		repo:      repo,
		codec:     JSONCodec{},
		publisher: noopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) lookup(key string) (*Definition, error) {
	def, ok := m.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return def, nil
}

// Resolve walks the scope's fallback chain and returns the first stored value,
// or the definition default.
func (m *Manager) Resolve(ctx context.Context, key string, scope Scope) (v Value, err error) {
	ctx, span := startSpan(ctx, "settings.Resolve", key, scope)
	defer func() { endSpan(span, err) }()
	return m.resolve(ctx, key, scope)
}

func (m *Manager) resolve(ctx context.Context, key string, scope Scope) (Value, error) {
	def, err := m.lookup(key)
	if err != nil {
		return Value{}, err
	}
	for _, s := range scope.Chain() {
		raw, err := m.repo.Get(ctx, Key{Name: key, Scope: s})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Value{}, err
		}
		v, err := m.codec.Unmarshal(raw)
		if err != nil {
			return Value{}, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		src := sourceFor(scope, s)
		recordRead(ctx, def, src)
		return Value{Key: key, Scope: s, Value: v, Source: src}, nil
	}
	recordRead(ctx, def, SourceDefinition)
	return Value{Key: key, Scope: scope, Value: def.Default, Source: SourceDefinition}, nil
}

func (m *Manager) Get(ctx context.Context, key string, scope Scope) (any, error) {
	v, err := m.Resolve(ctx, key, scope)
	if err != nil {
		return nil, err
	}
	return v.Value, nil
}

// Decode resolves key and unmarshals the effective value into out.
func (m *Manager) Decode(ctx context.Context, key string, scope Scope, out any) error {
	v, err := m.Get(ctx, key, scope)
	if err != nil {
		return err
	}
	raw, err := m.codec.Marshal(v)
	if err != nil {
		return err
	}
	if err := m.codec.Decode(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s into %T: %w", key, out, err)
	}
	return nil
}

func (m *Manager) GetString(ctx context.Context, key string, scope Scope) (string, error) {
	v, err := m.Get(ctx, key, scope)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("setting %s is a %T, not a string", key, v)
	}
}

func (m *Manager) GetBool(ctx context.Context, key string, scope Scope) (bool, error) {
	v, err := m.Get(ctx, key, scope)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("setting %s is a %T, not a bool", key, v)
	}
}

func (m *Manager) GetFloat(ctx context.Context, key string, scope Scope) (float64, error) {
	v, err := m.Get(ctx, key, scope)
	if err != nil {
		return 0, err
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("setting %s is a %T, not a number", key, v)
	}
}

func (m *Manager) GetInt(ctx context.Context, key string, scope Scope) (int64, error) {
	f, err := m.GetFloat(ctx, key, scope)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("setting %s value %v is not an integer", key, f)
	}
	return int64(f), nil
}

// Has reports whether a row is stored for exactly this scope.
func (m *Manager) Has(ctx context.Context, key string, scope Scope) (bool, error) {
	_, err := m.repo.Get(ctx, Key{Name: key, Scope: scope})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) Set(ctx context.Context, key string, scope Scope, value any) (err error) {
	ctx, span := startSpan(ctx, "settings.Set", key, scope)
	defer func() { endSpan(span, err) }()

	def, err := m.lookup(key)
	if err != nil {
		return err
	}
	raw, err := m.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := m.repo.Set(ctx, Key{Name: key, Scope: scope}, raw); err != nil {
		return err
	}
	recordWrite(ctx, def, ActionSet)
	m.publish(ctx, m.event(ctx, def, scope, ActionSet, raw))
	return nil
}

// SetMany writes several values for one scope. Nothing is written unless
// every value is valid; the returned *ValidationError lists every failure.
func (m *Manager) SetMany(ctx context.Context, scope Scope, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	batch := make([]KeyValue, 0, len(names))
	verr := &ValidationError{}
	for _, name := range names {
		if _, err := m.lookup(name); err != nil {
			return err
		}
		raw, err := m.codec.Marshal(values[name])
		if err != nil {
			verr.add(name, "cannot be encoded as JSON")
			continue
		}
		batch = append(batch, KeyValue{Key: Key{Name: name, Scope: scope}, Value: raw})
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	if err := SetMany(ctx, m.repo, batch); err != nil {
		return err
	}

	events := make([]ChangeEvent, 0, len(batch))
	for _, kv := range batch {
		def, _ := m.registry.Lookup(kv.Key.Name)
		recordWrite(ctx, def, ActionSet)
		events = append(events, m.event(ctx, def, scope, ActionSet, kv.Value))
	}
	m.publish(ctx, events...)
	return nil
}

// Reset deletes the scope's row so the next fallback applies.
func (m *Manager) Reset(ctx context.Context, key string, scope Scope) (err error) {
	ctx, span := startSpan(ctx, "settings.Reset", key, scope)
	defer func() { endSpan(span, err) }()

	def, err := m.lookup(key)
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, Key{Name: key, Scope: scope}); err != nil {
		return err
	}
	recordWrite(ctx, def, ActionReset)
	m.publish(ctx, m.event(ctx, def, scope, ActionReset, nil))
	return nil
}

// All resolves every setting of the scope's type. Settings the caller may not
// read are left out.
func (m *Manager) All(ctx context.Context, scope Scope) ([]Value, error) {
	defs := m.registry.ByType(scope.Type)
	out := make([]Value, 0, len(defs))
	for _, def := range defs {
		v, err := m.Resolve(ctx, def.Key, scope)
		if errors.Is(err, ErrPermissionDenied) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Manager) event(ctx context.Context, def *Definition, scope Scope, action Action, raw json.RawMessage) ChangeEvent {
	now := m.now().UTC()
	ev := ChangeEvent{
		ID:     idgen.NextULID(now),
		Key:    def.Key,
		Scope:  scope,
		Action: action,
		Time:   now,
	}
	if !def.Encrypted {
		ev.Value = raw
	}
	if p, ok := PrincipalFromContext(ctx); ok {
		ev.Actor = p.Name
	}
	return ev
}

// publish never fails the write: the value is already committed.
func (m *Manager) publish(ctx context.Context, events ...ChangeEvent) {
	if len(events) == 0 {
		return
	}
	if err := m.publisher.Publish(ctx, events...); err != nil {
		logctx.FromContext(ctx).Warn("Failed to publish setting change events",
			slog.Int("count", len(events)),
			slog.String("firstKey", events[0].Key),
			slog.Any("error", err))
	}
}
