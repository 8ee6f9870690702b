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
	"fmt"
	"slices"
)

type existenceLayer struct {
	next Repository
	reg  *Registry
}

// WithExistence rejects keys that are not registered or are used with the wrong scope type.
func WithExistence(reg *Registry) Layer {
	return func(next Repository) Repository {
		return &existenceLayer{next: next, reg: reg}
	}
}

func (l *existenceLayer) check(key Key) error {
	_, err := definitionFor(l.reg, key)
	return err
}

// definitionFor looks up the definition for key and checks its scope.
func definitionFor(reg *Registry, key Key) (*Definition, error) {
	def, ok := reg.Lookup(key.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key.Name)
	}
	if def.Type != key.Scope.Type {
		return nil, fmt.Errorf("%w: %s is a %s setting, not %s", ErrScopeMismatch, key.Name, def.Type, key.Scope.Type)
	}
	if err := key.Scope.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (l *existenceLayer) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	if err := l.check(key); err != nil {
		return nil, err
	}
	return l.next.Get(ctx, key)
}

func (l *existenceLayer) Set(ctx context.Context, key Key, value json.RawMessage) error {
	if err := l.check(key); err != nil {
		return err
	}
	return l.next.Set(ctx, key, value)
}

func (l *existenceLayer) SetMany(ctx context.Context, values []KeyValue) error {
	for _, kv := range values {
		if err := l.check(kv.Key); err != nil {
			return err
		}
	}
	return SetMany(ctx, l.next, values)
}

func (l *existenceLayer) Delete(ctx context.Context, key Key) error {
	if err := l.check(key); err != nil {
		return err
	}
	return l.next.Delete(ctx, key)
}

// List drops rows whose key is no longer registered.
func (l *existenceLayer) List(ctx context.Context, scope Scope) ([]Entry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	entries, err := l.next.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e Entry) bool {
		def, ok := l.reg.Lookup(e.Name)
		return !ok || def.Type != scope.Type
	}), nil
}
