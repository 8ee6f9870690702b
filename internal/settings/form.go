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
)

const MaskedValue = "********"

// FormField is the front-end descriptor of one setting.
type FormField struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Hint        string    `json:"hint,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Rules       string    `json:"rules,omitempty"`
	Required    bool      `json:"required"`
	Secret      bool      `json:"secret"`
	Value       any       `json:"value"`
	Default     any       `json:"default,omitempty"`
	Source      Source    `json:"source"`
}

type FormGroup struct {
	Name   string      `json:"name"`
	Fields []FormField `json:"fields"`
}

// Form describes every readable setting of the scope's type, grouped for
// rendering. Encrypted values are masked.
func (m *Manager) Form(ctx context.Context, scope Scope) ([]FormGroup, error) {
	values, err := m.All(ctx, scope)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]Value, len(values))
	for _, v := range values {
		byKey[v.Key] = v
	}

	groups := []FormGroup{}
	for _, g := range m.registry.Groups(scope.Type) {
		group := FormGroup{Name: g.Name}
		for _, def := range g.Definitions {
			v, ok := byKey[def.Key]
			if !ok {
				continue
			}
			group.Fields = append(group.Fields, formField(def, v))
		}
		if len(group.Fields) > 0 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func formField(def *Definition, v Value) FormField {
	f := FormField{
		Key:         def.Key,
		Type:        def.Field.Type,
		Label:       def.label(),
		Hint:        def.Field.Hint,
		Placeholder: def.Field.Placeholder,
		Description: def.Description,
		Options:     def.Field.Options,
		Rules:       def.Rules,
		Required:    def.Required(),
		Secret:      def.Encrypted,
		Value:       v.Value,
		Default:     def.Default,
		Source:      v.Source,
	}
	if def.Encrypted {
		f.Default = nil
		if v.Value != nil && v.Value != "" {
			f.Value = MaskedValue
		}
	}
	return f
}
