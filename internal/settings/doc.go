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

// Package settings defines named configuration entries and the decorator
// chain that reads and writes them.
//
// # Definitions
//
// A Definition describes one setting: its key, whether it is global, per-user
// or per-tenant, its default value, validation rules, whether the value is
// encrypted at rest, and the form field used to edit it. Definitions come from
// Go code (Definer) or from YAML ("anonymous" settings) and live in a Registry.
//
// # Storage Model
//
// Values are stored as JSON keyed by (key, type, tenant_id, user_id). The nil
// UUID means "unset", so a row with nil IDs for a user or tenant setting is the
// system-wide default for that setting, and a user setting row with a tenant
// but no user is the tenant-wide default.
//
// # Fallback Chain
//
// Manager lookups follow: scope row -> tenant default row -> system default
// row -> Definition.Default.
//
// # Decorator Chain
//
// Every layer implements Repository and adds one concern. Chain composes them
// outermost first; the standard order is
//
//	existence -> permission -> validation -> encryption -> cache -> storage
//
// so the cache holds the encrypted payload and invalid writes never reach the
// database.
package settings
