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
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Registry holds every known Definition.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]*Definition
	validator *Validator
}

func NewRegistry() *Registry {
	return &Registry{
		defs:      make(map[string]*Definition),
		validator: NewValidator(),
	}
}

// Register adds definitions. Either all of them are added or none is.
func (r *Registry) Register(defs ...Definition) error {
	var result *multierror.Error
	prepared := make([]*Definition, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	r.mu.RLock()
	for i := range defs {
		d := defs[i]
		if err := d.normalize(); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, exists := r.defs[d.Key]; exists || seen[d.Key] {
			result = multierror.Append(result, fmt.Errorf("setting %q is already registered", d.Key))
			continue
		}
		seen[d.Key] = true
		if err := r.validator.compile(&d); err != nil {
			result = multierror.Append(result, fmt.Errorf("setting %q: %w", d.Key, err))
			continue
		}
		if d.Default != nil {
			if msgs := r.validator.Validate(&d, d.Default); len(msgs) > 0 {
				result = multierror.Append(result, fmt.Errorf("setting %q: default %v is invalid: %v", d.Key, d.Default, msgs))
				continue
			}
		}
		prepared = append(prepared, &d)
	}
	r.mu.RUnlock()

	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range prepared {
		if _, exists := r.defs[d.Key]; exists {
			return fmt.Errorf("setting %q is already registered", d.Key)
		}
	}
	for _, d := range prepared {
		r.defs[d.Key] = d
	}
	return nil
}

func (r *Registry) RegisterDefiner(ds ...Definer) error {
	defs := make([]Definition, 0, len(ds))
	for _, d := range ds {
		defs = append(defs, d.Definition())
	}
	return r.Register(defs...)
}

// MustRegister panics if Register fails.
func (r *Registry) MustRegister(defs ...Definition) {
	if err := r.Register(defs...); err != nil {
		panic(err)
	}
}

type definitionFile struct {
	Settings []Definition `yaml:"settings"`
}

// LoadYAML registers anonymous settings from a document of the form
//
//	settings:
//	  - key: mail.from_address
//	    type: global
//	    rules: required,email
func (r *Registry) LoadYAML(data []byte) error {
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse settings definitions: %w", err)
	}
	return r.Register(f.Settings...)
}

func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings definitions %s: %w", path, err)
	}
	if err := r.LoadYAML(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (r *Registry) Lookup(key string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[key]
	return d, ok
}

func (r *Registry) Validator() *Validator {
	return r.validator
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// All returns every definition sorted by group, field order and key.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sortDefinitions(out)
	return out
}

func (r *Registry) ByType(t Type) []*Definition {
	all := r.All()
	return slices.DeleteFunc(all, func(d *Definition) bool { return d.Type != t })
}

// DefinitionGroup is a named, ordered set of definitions.
type DefinitionGroup struct {
	Name        string
	Definitions []*Definition
}

// Groups partitions the definitions of one type by Group.
func (r *Registry) Groups(t Type) []DefinitionGroup {
	var groups []DefinitionGroup
	for _, d := range r.ByType(t) {
		if n := len(groups); n > 0 && groups[n-1].Name == d.Group {
			groups[n-1].Definitions = append(groups[n-1].Definitions, d)
			continue
		}
		groups = append(groups, DefinitionGroup{Name: d.Group, Definitions: []*Definition{d}})
	}
	return groups
}

func sortDefinitions(defs []*Definition) {
	sort.Slice(defs, func(i, j int) bool {
		a, b := defs[i], defs[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Field.Order != b.Field.Order {
			return a.Field.Order < b.Field.Order
		}
		return a.Key < b.Key
	})
}
