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

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/cardinalhq/settingsd/internal/settings"
)

// scopeFromRequest builds the scope addressed by the type, tenant, user and
// default query parameters. fallback is used when type is absent.
//
// Tenant and user IDs default to the caller's own. default=true addresses a
// default row instead: the system default, or for user settings with an
// explicit tenant, that tenant's default.
func scopeFromRequest(r *http.Request, p *settings.Principal, fallback settings.Type) (settings.Scope, error) {
	q := r.URL.Query()

	typ := fallback
	if t := q.Get("type"); t != "" {
		parsed, err := settings.ParseType(t)
		if err != nil {
			return settings.Scope{}, badRequest(err.Error())
		}
		typ = parsed
	}

	isDefault := false
	if d := q.Get("default"); d != "" {
		v, err := strconv.ParseBool(d)
		if err != nil {
			return settings.Scope{}, badRequest(fmt.Sprintf("invalid default parameter %q", d))
		}
		isDefault = v
	}

	tenantID, tenantSet, err := uuidParam(q.Get("tenant"), "tenant")
	if err != nil {
		return settings.Scope{}, err
	}
	userID, userSet, err := uuidParam(q.Get("user"), "user")
	if err != nil {
		return settings.Scope{}, err
	}

	switch typ {
	case settings.TypeGlobal:
		if tenantSet || userSet {
			return settings.Scope{}, badRequest("global settings take no tenant or user")
		}
		return settings.GlobalScope(), nil

	case settings.TypeTenant:
		if userSet {
			return settings.Scope{}, badRequest("tenant settings take no user")
		}
		if isDefault {
			return settings.TenantScope(uuid.Nil), nil
		}
		if !tenantSet {
			tenantID = p.TenantID
		}
		if tenantID == uuid.Nil {
			return settings.Scope{}, badRequest("tenant is required")
		}
		return settings.TenantScope(tenantID), nil

	default:
		if isDefault {
			if userSet {
				return settings.Scope{}, badRequest("default rows take no user")
			}
			return settings.UserScope(tenantID, uuid.Nil), nil
		}
		if !tenantSet {
			tenantID = p.TenantID
		}
		if !userSet {
			userID = p.UserID
		}
		if userID == uuid.Nil {
			return settings.Scope{}, badRequest("user is required")
		}
		return settings.UserScope(tenantID, userID), nil
	}
}

func uuidParam(s, name string) (uuid.UUID, bool, error) {
	if s == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false, badRequest(fmt.Sprintf("invalid %s ID %q", name, s))
	}
	return id, true, nil
}
