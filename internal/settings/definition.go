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
	"regexp"
	"slices"
	"strings"

	"github.com/google/cel-go/cel"
)

// FieldType selects the form control used to edit a setting.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
	FieldPassword FieldType = "password"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldJSON     FieldType = "json"
)

func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldTextarea, FieldNumber, FieldCheckbox, FieldSelect,
		FieldPassword, FieldEmail, FieldURL, FieldJSON:
		return true
	default:
		return false
	}
}

func (f FieldType) stringValued() bool {
	switch f {
	case FieldText, FieldTextarea, FieldPassword, FieldEmail, FieldURL:
		return true
	default:
		return false
	}
}

type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field describes how a front end renders a setting.
type Field struct {
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label,omitempty" yaml:"label"`
	Hint        string    `json:"hint,omitempty" yaml:"hint"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder"`
	Options     []Option  `json:"options,omitempty" yaml:"options"`
	Order       int       `json:"order" yaml:"order"`
}

// Definition describes a single setting.
type Definition struct {
	Key         string   `json:"key" yaml:"key"`
	Type        Type     `json:"type" yaml:"type"`
	Default     any      `json:"default" yaml:"default"`
	Rules       string   `json:"rules,omitempty" yaml:"rules"`
	Expressions []string `json:"expressions,omitempty" yaml:"expressions"`
	Encrypted   bool     `json:"encrypted" yaml:"encrypted"`
	Group       string   `json:"group" yaml:"group"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Field       Field    `json:"field" yaml:"field"`
	ReadRoles   []string `json:"read_roles,omitempty" yaml:"read_roles"`
	WriteRoles  []string `json:"write_roles,omitempty" yaml:"write_roles"`

	programs []cel.Program
}

// Definer is implemented by settings declared in Go code.
type Definer interface {
	Definition() Definition
}

const DefaultGroup = "general"

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+(\.[a-z0-9_-]+)*$`)

// Required reports whether the rules demand a non-null value.
func (d *Definition) Required() bool {
	return slices.Contains(strings.Split(d.Rules, ","), "required")
}

func (d *Definition) label() string {
	if d.Field.Label != "" {
		return d.Field.Label
	}
	return d.Key
}

// normalize fills derived fields and checks the static shape of the definition.
func (d *Definition) normalize() error {
	if d.Key == "" {
		return fmt.Errorf("setting key is empty")
	}
	if !keyPattern.MatchString(d.Key) {
		return fmt.Errorf("setting %q: key must match %s", d.Key, keyPattern)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("setting %q: invalid type %q", d.Key, d.Type)
	}
	if d.Group == "" {
		d.Group = DefaultGroup
	}
	if d.Encrypted && d.Field.Type == "" {
		d.Field.Type = FieldPassword
	}
	if d.Field.Type == "" {
		d.Field.Type = inferFieldType(d.Default)
	}
	if !d.Field.Type.Valid() {
		return fmt.Errorf("setting %q: invalid field type %q", d.Key, d.Field.Type)
	}
	if d.Field.Type == FieldSelect && len(d.Field.Options) == 0 {
		return fmt.Errorf("setting %q: select field needs options", d.Key)
	}

	d.Field.Options = slices.Clone(d.Field.Options)
	d.Expressions = slices.Clone(d.Expressions)
	def, err := normalizeJSON(d.Default)
	if err != nil {
		return fmt.Errorf("setting %q: default: %w", d.Key, err)
	}
	d.Default = def
	for i := range d.Field.Options {
		v, err := normalizeJSON(d.Field.Options[i].Value)
		if err != nil {
			return fmt.Errorf("setting %q: option %d: %w", d.Key, i, err)
		}
		d.Field.Options[i].Value = v
		if d.Field.Options[i].Label == "" {
			d.Field.Options[i].Label = fmt.Sprint(v)
		}
	}
	return nil
}

func inferFieldType(v any) FieldType {
	switch v.(type) {
	case bool:
		return FieldCheckbox
	case int, int32, int64, float32, float64, uint, uint32, uint64:
		return FieldNumber
	case map[string]any, []any:
		return FieldJSON
	default:
		return FieldText
	}
}

// normalizeJSON round-trips v through JSON so defaults compare equal to decoded values.
func normalizeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
