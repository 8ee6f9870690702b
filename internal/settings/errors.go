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
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrUnknownSetting        = errors.New("unknown setting")
	ErrScopeMismatch         = errors.New("scope does not match setting type")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrNotFound              = errors.New("setting value not found")
	ErrDecrypt               = errors.New("failed to decrypt setting value")
	ErrEncryptionUnavailable = errors.New("encryption is not configured")
)

// FieldError is one failed rule for one setting.
type FieldError struct {
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidationError collects every rule failure of a write or batch of writes.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) add(key string, messages ...string) {
	for _, msg := range messages {
		e.errs = multierror.Append(e.errs, &FieldError{Key: key, Message: msg})
	}
}

func (e *ValidationError) merge(other *ValidationError) {
	if other == nil || other.errs == nil {
		return
	}
	e.errs = multierror.Append(e.errs, other.errs.Errors...)
}

func (e *ValidationError) empty() bool {
	return e.errs == nil || len(e.errs.Errors) == 0
}

func (e *ValidationError) orNil() error {
	if e.empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.empty() {
		return "validation failed"
	}
	e.errs.ErrorFormat = func(errs []error) string {
		if len(errs) == 1 {
			return "validation failed: " + errs[0].Error()
		}
		return fmt.Sprintf("validation failed: %d errors", len(errs))
	}
	return e.errs.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.Errors
}

// Fields groups messages by setting key.
func (e *ValidationError) Fields() map[string][]string {
	fields := make(map[string][]string)
	if e.errs == nil {
		return fields
	}
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields[fe.Key] = append(fields[fe.Key], fe.Message)
		}
	}
	return fields
}

// Keys returns the failing setting keys in sorted order.
func (e *ValidationError) Keys() []string {
	fields := e.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
