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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type partitions settings by who they apply to.
type Type string

const (
	TypeGlobal Type = "global"
	TypeUser   Type = "user"
	TypeTenant Type = "tenant"
)

var allTypes = []Type{TypeGlobal, TypeUser, TypeTenant}

func (t Type) Valid() bool {
	switch t {
	case TypeGlobal, TypeUser, TypeTenant:
		return true
	default:
		return false
	}
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid setting type %q (want one of %v)", s, allTypes)
	}
	return t, nil
}

// Scope addresses the row a value is read from or written to.
type Scope struct {
	Type     Type      `json:"type"`
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
}

func GlobalScope() Scope {
	return Scope{Type: TypeGlobal}
}

func TenantScope(tenantID uuid.UUID) Scope {
	return Scope{Type: TypeTenant, TenantID: tenantID}
}

func UserScope(tenantID, userID uuid.UUID) Scope {
	return Scope{Type: TypeUser, TenantID: tenantID, UserID: userID}
}

// Validate reports whether the IDs make sense for the scope type.
func (s Scope) Validate() error {
	switch s.Type {
	case TypeGlobal:
		if s.TenantID != uuid.Nil || s.UserID != uuid.Nil {
			return fmt.Errorf("%w: global scope cannot carry tenant or user IDs", ErrScopeMismatch)
		}
	case TypeTenant:
		if s.UserID != uuid.Nil {
			return fmt.Errorf("%w: tenant scope cannot carry a user ID", ErrScopeMismatch)
		}
	case TypeUser:
	default:
		return fmt.Errorf("%w: unknown scope type %q", ErrScopeMismatch, s.Type)
	}
	return nil
}

// IsSystemDefault is true for the nil-ID row of a user or tenant setting.
func (s Scope) IsSystemDefault() bool {
	return s.Type != TypeGlobal && s.TenantID == uuid.Nil && s.UserID == uuid.Nil
}

// IsTenantDefault is true for a user setting row that applies to every user of a tenant.
func (s Scope) IsTenantDefault() bool {
	return s.Type == TypeUser && s.TenantID != uuid.Nil && s.UserID == uuid.Nil
}

// Chain lists the scopes consulted for a read, most specific first.
func (s Scope) Chain() []Scope {
	chain := []Scope{s}
	switch s.Type {
	case TypeTenant:
		if s.TenantID != uuid.Nil {
			chain = append(chain, Scope{Type: TypeTenant})
		}
	case TypeUser:
		if s.UserID != uuid.Nil && s.TenantID != uuid.Nil {
			chain = append(chain, Scope{Type: TypeUser, TenantID: s.TenantID})
		}
		if s.UserID != uuid.Nil || s.TenantID != uuid.Nil {
			chain = append(chain, Scope{Type: TypeUser})
		}
	}
	return chain
}

func (s Scope) String() string {
	switch s.Type {
	case TypeGlobal:
		return "global"
	case TypeTenant:
		return "tenant:" + s.TenantID.String()
	default:
		return "user:" + s.TenantID.String() + "/" + s.UserID.String()
	}
}

// Key identifies one stored value.
type Key struct {
	Name  string
	Scope Scope
}

func (k Key) String() string {
	return k.Scope.String() + "/" + k.Name
}

// Entry is a stored value as returned by Repository.List.
type Entry struct {
	Name      string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// KeyValue is one write in a batch.
type KeyValue struct {
	Key   Key
	Value json.RawMessage
}

// Source tells where an effective value came from.
type Source string

const (
	SourceStored        Source = "stored"
	SourceTenantDefault Source = "tenant_default"
	SourceSystemDefault Source = "system_default"
	SourceDefinition    Source = "default"
)

func sourceFor(requested, found Scope) Source {
	switch {
	case requested == found:
		return SourceStored
	case found.TenantID != uuid.Nil:
		return SourceTenantDefault
	default:
		return SourceSystemDefault
	}
}
