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

type permissionLayer struct {
	next  Repository
	reg   *Registry
	authz Authorizer
}

// WithPermissions checks the context principal against authz. Calls without a
// principal are internal and always allowed.
func WithPermissions(reg *Registry, authz Authorizer) Layer {
	return func(next Repository) Repository {
		return &permissionLayer{next: next, reg: reg, authz: authz}
	}
}

func (l *permissionLayer) allowed(ctx context.Context, key Key, write bool) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil
	}
	def, found := l.reg.Lookup(key.Name)
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key.Name)
	}
	if write {
		if !l.authz.CanWrite(ctx, p, def, key.Scope) {
			return fmt.Errorf("%w: %s may not write %s", ErrPermissionDenied, p.Name, key)
		}
		return nil
	}
	if !l.authz.CanRead(ctx, p, def, key.Scope) {
		return fmt.Errorf("%w: %s may not read %s", ErrPermissionDenied, p.Name, key)
	}
	return nil
}

func (l *permissionLayer) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	if err := l.allowed(ctx, key, false); err != nil {
		return nil, err
	}
	return l.next.Get(ctx, key)
}

func (l *permissionLayer) Set(ctx context.Context, key Key, value json.RawMessage) error {
	if err := l.allowed(ctx, key, true); err != nil {
		return err
	}
	return l.next.Set(ctx, key, value)
}

func (l *permissionLayer) SetMany(ctx context.Context, values []KeyValue) error {
	for _, kv := range values {
		if err := l.allowed(ctx, kv.Key, true); err != nil {
			return err
		}
	}
	return SetMany(ctx, l.next, values)
}

func (l *permissionLayer) Delete(ctx context.Context, key Key) error {
	if err := l.allowed(ctx, key, true); err != nil {
		return err
	}
	return l.next.Delete(ctx, key)
}

func (l *permissionLayer) List(ctx context.Context, scope Scope) ([]Entry, error) {
	entries, err := l.next.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e Entry) bool {
		return l.allowed(ctx, Key{Name: e.Name, Scope: scope}, false) != nil
	}), nil
}
