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
)

type validationLayer struct {
	next Repository
	reg  *Registry
}

// WithValidation rejects writes whose value fails the definition's checks.
func WithValidation(reg *Registry) Layer {
	return func(next Repository) Repository {
		return &validationLayer{next: next, reg: reg}
	}
}

func (l *validationLayer) validate(key Key, raw json.RawMessage) (*ValidationError, error) {
	def, ok := l.reg.Lookup(key.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key.Name)
	}
	verr := &ValidationError{}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		verr.add(key.Name, "must be valid JSON")
		return verr, nil
	}
	verr.add(key.Name, l.reg.Validator().Validate(def, value)...)
	return verr, nil
}

func (l *validationLayer) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	return l.next.Get(ctx, key)
}

func (l *validationLayer) Set(ctx context.Context, key Key, value json.RawMessage) error {
	verr, err := l.validate(key, value)
	if err != nil {
		return err
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	return l.next.Set(ctx, key, value)
}

// SetMany validates the whole batch before anything is written.
func (l *validationLayer) SetMany(ctx context.Context, values []KeyValue) error {
	all := &ValidationError{}
	for _, kv := range values {
		verr, err := l.validate(kv.Key, kv.Value)
		if err != nil {
			return err
		}
		all.merge(verr)
	}
	if err := all.orNil(); err != nil {
		return err
	}
	return SetMany(ctx, l.next, values)
}

func (l *validationLayer) Delete(ctx context.Context, key Key) error {
	return l.next.Delete(ctx, key)
}

func (l *validationLayer) List(ctx context.Context, scope Scope) ([]Entry, error) {
	return l.next.List(ctx, scope)
}
