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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Register(
		Definition{Key: "mail.admin", Type: TypeGlobal, Rules: "omitempty,email"},
		Definition{Key: "site.enabled", Type: TypeGlobal, Default: false, Rules: "required"},
		Definition{Key: "site.retries", Type: TypeGlobal, Default: 0, Rules: "required,min=0", Field: Field{Type: FieldNumber}},
	))
	v := reg.Validator()

	lookup := func(key string) *Definition {
		d, ok := reg.Lookup(key)
		require.True(t, ok, key)
		return d
	}

	tests := []struct {
		name  string
		key   string
		value any
		want  []string
	}{
		{"valid string", "site.name", "Example", nil},
		{"required null", "site.name", nil, []string{"is required"}},
		{"optional null", "mail.password", nil, nil},
		{"too long", "site.name", "abcdefghijklmnopqrstuvwxyz0123456789", []string{"must be at most 32"}},
		{"empty required string", "site.name", "", []string{"is required"}},
		{"number type", "site.max_users", "ten", []string{"must be a number"}},
		{"number range", "site.max_users", float64(0), []string{"must be at least 1"}},
		{"string type", "site.name", float64(3), []string{"must be a string"}},
		{"checkbox type", "user.notifications", "yes", []string{"must be true or false"}},
		{"required checkbox accepts false", "site.enabled", false, nil},
		{"required number accepts zero", "site.retries", float64(0), nil},
		{"required number still checks min", "site.retries", float64(-1), []string{"must be at least 0"}},
		{"select option", "user.theme", "dark", nil},
		{"select unknown option", "user.theme", "neon", []string{"must be one of the listed options"}},
		{"json accepts objects", "site.links", map[string]any{"docs": "/docs"}, nil},
		{"expression passes", "tenant.quota", float64(50), nil},
		{"expression fails", "tenant.quota", float64(5), []string{"must satisfy value >= 10.0"}},
		{"email", "mail.admin", "ops@example.com", nil},
		{"bad email", "mail.admin", "not-an-email", []string{"must be a valid email address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(lookup(tt.key), tt.value))
		})
	}
}

func TestRuleMessage(t *testing.T) {
	assert.Equal(t, "must have length 4", ruleMessage("len", "4"))
	assert.Equal(t, "must be one of [a b]", ruleMessage("oneof", "a b"))
	assert.Equal(t, "failed the alphanum rule", ruleMessage("alphanum", ""))
	assert.Equal(t, "failed the startswith=x rule", ruleMessage("startswith", "x"))
}

func TestRulesFor(t *testing.T) {
	assert.Equal(t, "max=3", rulesFor("required,max=3"))
	assert.Equal(t, "min=0", rulesFor("required,min=0"))
	assert.Equal(t, "", rulesFor("required"))
	assert.Equal(t, "", rulesFor(""))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, isBlank(""))
	assert.True(t, isBlank([]any{}))
	assert.True(t, isBlank(map[string]any{}))
	assert.False(t, isBlank(float64(0)))
	assert.False(t, isBlank(false))
	assert.False(t, isBlank("x"))
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	assert.Nil(t, verr.orNil())
	assert.Equal(t, "validation failed", verr.Error())

	verr.add("b.key", "is required")
	assert.Equal(t, "validation failed: b.key: is required", verr.Error())

	other := &ValidationError{}
	other.add("a.key", "must be a number", "must be at least 1")
	verr.merge(other)
	verr.merge(nil)

	assert.Equal(t, "validation failed: 3 errors", verr.Error())
	assert.Equal(t, map[string][]string{
		"a.key": {"must be a number", "must be at least 1"},
		"b.key": {"is required"},
	}, verr.Fields())
	assert.Equal(t, []string{"a.key", "b.key"}, verr.Keys())

	var fe *FieldError
	require.ErrorAs(t, verr, &fe)
	assert.Equal(t, "b.key", fe.Key)
}
