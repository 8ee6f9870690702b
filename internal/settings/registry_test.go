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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	reg := testRegistry(t)
	assert.Equal(t, len(testDefinitions()), reg.Len())

	def, ok := reg.Lookup("site.max_users")
	require.True(t, ok)
	assert.Equal(t, float64(10), def.Default, "defaults are normalized to their JSON form")
	assert.Equal(t, FieldNumber, def.Field.Type)

	def, ok = reg.Lookup("mail.password")
	require.True(t, ok)
	assert.Equal(t, FieldPassword, def.Field.Type)
	assert.Equal(t, "mail", def.Group)

	def, ok = reg.Lookup("user.notifications")
	require.True(t, ok)
	assert.Equal(t, FieldCheckbox, def.Field.Type)

	def, ok = reg.Lookup("tenant.quota")
	require.True(t, ok)
	assert.Equal(t, DefaultGroup, def.Group)
	assert.Len(t, def.programs, 1)

	_, ok = reg.Lookup("Site.Name")
	assert.False(t, ok, "lookups are case-sensitive")
}

func TestRegistry_RegisterRejects(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"empty key", Definition{Type: TypeGlobal}},
		{"bad key charset", Definition{Key: "Site Name", Type: TypeGlobal}},
		{"trailing dot", Definition{Key: "site.", Type: TypeGlobal}},
		{"bad type", Definition{Key: "site.x", Type: "org"}},
		{"bad field type", Definition{Key: "site.x", Type: TypeGlobal, Field: Field{Type: "slider"}}},
		{"select without options", Definition{Key: "site.x", Type: TypeGlobal, Field: Field{Type: FieldSelect}}},
		{"unknown rule", Definition{Key: "site.x", Type: TypeGlobal, Rules: "notarule"}},
		{"bad rule param", Definition{Key: "site.x", Type: TypeGlobal, Rules: "min=abc"}},
		{"bad expression", Definition{Key: "site.x", Type: TypeGlobal, Expressions: []string{"value >"}}},
		{"non-bool expression", Definition{Key: "site.x", Type: TypeGlobal, Expressions: []string{"'abc'"}}},
		{"invalid default", Definition{Key: "site.x", Type: TypeGlobal, Default: "x", Rules: "min=3"}},
		{"default not in options", Definition{
			Key: "site.x", Type: TypeGlobal, Default: "blue",
			Field: Field{Type: FieldSelect, Options: []Option{{Value: "red"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			assert.Error(t, reg.Register(tt.def))
			assert.Zero(t, reg.Len())
		})
	}
}

func TestRegistry_Duplicates(t *testing.T) {
	reg := testRegistry(t)

	err := reg.Register(Definition{Key: "site.name", Type: TypeGlobal})
	assert.ErrorContains(t, err, "already registered")

	err = NewRegistry().Register(
		Definition{Key: "a.b", Type: TypeGlobal},
		Definition{Key: "a.b", Type: TypeUser},
	)
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistry_RegisterIsAllOrNothing(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(
		Definition{Key: "good.one", Type: TypeGlobal},
		Definition{Key: "", Type: TypeGlobal},
	)
	require.Error(t, err)
	_, ok := reg.Lookup("good.one")
	assert.False(t, ok)
}

type siteTitle struct{}

func (siteTitle) Definition() Definition {
	return Definition{Key: "site.title", Type: TypeGlobal, Default: "Welcome"}
}

func TestRegistry_RegisterDefiner(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterDefiner(siteTitle{}))
	def, ok := reg.Lookup("site.title")
	require.True(t, ok)
	assert.Equal(t, "Welcome", def.Default)
}

const definitionsYAML = `
settings:
  - key: mail.from_address
    type: global
    default: noreply@example.com
    rules: required,email
    group: mail
    field:
      type: email
      label: From address
  - key: user.page_size
    type: user
    default: 25
    expressions:
      - "value > 0 && value <= 200"
    field:
      type: select
      options:
        - value: 25
        - value: 50
          label: Fifty
`

func TestRegistry_LoadYAML(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.LoadYAML([]byte(definitionsYAML)))

	def, ok := reg.Lookup("mail.from_address")
	require.True(t, ok)
	assert.Equal(t, TypeGlobal, def.Type)
	assert.Equal(t, FieldEmail, def.Field.Type)
	assert.Equal(t, "From address", def.Field.Label)
	assert.True(t, def.Required())

	def, ok = reg.Lookup("user.page_size")
	require.True(t, ok)
	assert.Equal(t, float64(25), def.Default)
	require.Len(t, def.Field.Options, 2)
	assert.Equal(t, float64(25), def.Field.Options[0].Value)
	assert.Equal(t, "25", def.Field.Options[0].Label)
	assert.Equal(t, "Fifty", def.Field.Options[1].Label)
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionsYAML), 0o600))

	reg := NewRegistry()
	require.NoError(t, reg.LoadFile(path))
	assert.Equal(t, 2, reg.Len())

	err := reg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	err = NewRegistry().LoadYAML([]byte("settings: [unclosed"))
	assert.Error(t, err)
}

func TestRegistry_Ordering(t *testing.T) {
	reg := testRegistry(t)

	var keys []string
	for _, d := range reg.ByType(TypeGlobal) {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{
		"mail.api_token", "mail.password",
		"site.ops_flag", "site.name", "site.max_users", "site.links",
	}, keys)

	groups := reg.Groups(TypeGlobal)
	require.Len(t, groups, 2)
	assert.Equal(t, "mail", groups[0].Name)
	assert.Equal(t, "site", groups[1].Name)
	assert.Len(t, groups[1].Definitions, 4)

	assert.Len(t, reg.ByType(TypeUser), 2)
	assert.Len(t, reg.ByType(TypeTenant), 1)
	assert.Len(t, reg.All(), len(testDefinitions()))
}
