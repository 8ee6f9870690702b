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
	"slices"

	"github.com/google/uuid"
)

const (
	RoleAdmin       = "admin"
	RoleTenantAdmin = "tenant-admin"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Roles    []string  `json:"roles"`
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Authorizer decides whether a principal may touch a scope's value of a setting.
type Authorizer interface {
	CanRead(ctx context.Context, p *Principal, def *Definition, scope Scope) bool
	CanWrite(ctx context.Context, p *Principal, def *Definition, scope Scope) bool
}

// RoleAuthorizer is the default policy.
//
// Admins may do anything. Global settings are world-readable and admin-writable.
// Tenant settings are visible to members of the tenant and writable by its
// tenant admins. User settings belong to their user; a tenant admin manages the
// tenant-wide defaults of user settings. System default rows are readable by
// everyone and writable only by admins. ReadRoles and WriteRoles narrow this
// further.
type RoleAuthorizer struct{}

var _ Authorizer = RoleAuthorizer{}

func (RoleAuthorizer) CanRead(_ context.Context, p *Principal, def *Definition, scope Scope) bool {
	if p.HasRole(RoleAdmin) {
		return true
	}
	if len(def.ReadRoles) > 0 && !p.HasRole(def.ReadRoles...) {
		return false
	}
	if scope.Type == TypeGlobal || scope.IsSystemDefault() {
		return true
	}
	if scope.TenantID != uuid.Nil && scope.TenantID != p.TenantID {
		return false
	}
	switch scope.Type {
	case TypeTenant:
		return true
	case TypeUser:
		return scope.UserID == uuid.Nil || scope.UserID == p.UserID
	}
	return false
}

func (RoleAuthorizer) CanWrite(_ context.Context, p *Principal, def *Definition, scope Scope) bool {
	if p.HasRole(RoleAdmin) {
		return true
	}
	if len(def.WriteRoles) > 0 && !p.HasRole(def.WriteRoles...) {
		return false
	}
	if scope.Type == TypeGlobal || scope.IsSystemDefault() {
		return false
	}
	if scope.TenantID != uuid.Nil && scope.TenantID != p.TenantID {
		return false
	}
	switch scope.Type {
	case TypeTenant:
		return p.HasRole(RoleTenantAdmin)
	case TypeUser:
		if scope.UserID == uuid.Nil {
			return p.HasRole(RoleTenantAdmin)
		}
		return scope.UserID == p.UserID
	}
	return false
}
