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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Form(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Set(ctx, "mail.password", GlobalScope(), "hunter2"))
	require.NoError(t, m.Set(ctx, "site.name", GlobalScope(), "Example"))

	groups, err := m.Form(ctx, GlobalScope())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	mail := groups[0]
	assert.Equal(t, "mail", mail.Name)
	require.Len(t, mail.Fields, 2)
	assert.Equal(t, "mail.api_token", mail.Fields[0].Key)
	assert.Nil(t, mail.Fields[0].Value, "unset secrets stay empty")
	assert.True(t, mail.Fields[0].Secret)

	pw := mail.Fields[1]
	assert.Equal(t, FieldPassword, pw.Type)
	assert.Equal(t, MaskedValue, pw.Value)
	assert.True(t, pw.Secret)
	assert.Equal(t, SourceStored, pw.Source)

	site := groups[1]
	assert.Equal(t, "site", site.Name)
	require.Len(t, site.Fields, 4)
	name := site.Fields[1]
	assert.Equal(t, "site.name", name.Key)
	assert.Equal(t, "Site name", name.Label)
	assert.Equal(t, "Example", name.Value)
	assert.Equal(t, "Acme", name.Default)
	assert.True(t, name.Required)
	assert.Equal(t, "site.max_users", site.Fields[2].Label)

	raw, err := json.Marshal(groups)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
}

func TestManager_FormUserScope(t *testing.T) {
	m, _, _ := newTestManager(t)

	groups, err := m.Form(userCtx(), UserScope(testTenant, testUser))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "appearance", groups[0].Name)
	require.Len(t, groups[0].Fields, 2)

	notifications := groups[0].Fields[0]
	assert.Equal(t, "user.notifications", notifications.Key)
	assert.Equal(t, FieldCheckbox, notifications.Type)
	assert.Equal(t, true, notifications.Value)

	theme := groups[0].Fields[1]
	assert.Equal(t, FieldSelect, theme.Type)
	assert.Len(t, theme.Options, 2)
	assert.Equal(t, SourceDefinition, theme.Source)
}

func TestManager_FormHidesUnreadable(t *testing.T) {
	m, _, _ := newTestManager(t)

	groups, err := m.Form(userCtx(), GlobalScope())
	require.NoError(t, err)
	for _, g := range groups {
		for _, f := range g.Fields {
			assert.NotEqual(t, "site.ops_flag", f.Key)
		}
	}
}
