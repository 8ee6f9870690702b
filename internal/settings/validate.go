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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Validator checks decoded JSON values against a definition's field type,
// validator tags and CEL expressions.
type Validator struct {
	validate *validator.Validate
	env      *cel.Env
}

func NewValidator() *Validator {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		ext.Strings(),
	)
	if err != nil {
		panic(fmt.Sprintf("settings: failed to create CEL environment: %v", err))
	}
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		env:      env,
	}
}

// compile checks rule tags and compiles expressions onto the definition.
func (v *Validator) compile(d *Definition) error {
	if d.Rules != "" {
		if err := v.checkRules(d.Rules); err != nil {
			return err
		}
	}
	programs := make([]cel.Program, 0, len(d.Expressions))
	for _, expr := range d.Expressions {
		ast, iss := v.env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return fmt.Errorf("expression %q: %w", expr, iss.Err())
		}
		out := ast.OutputType()
		if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return fmt.Errorf("expression %q must return bool, not %s", expr, out)
		}
		prg, err := v.env.Program(ast)
		if err != nil {
			return fmt.Errorf("expression %q: %w", expr, err)
		}
		programs = append(programs, prg)
	}
	d.programs = programs
	return nil
}

// validator panics on unknown tags instead of returning an error.
func (v *Validator) checkRules(rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rules %q: %v", rules, r)
		}
	}()
	_ = v.validate.Var("", rules)
	return nil
}

// Validate returns one message per failed check, or nil if value is acceptable.
func (v *Validator) Validate(d *Definition, value any) []string {
	if value == nil {
		if d.Required() {
			return []string{"is required"}
		}
		return nil
	}

	if msg := checkFieldType(d, value); msg != "" {
		return []string{msg}
	}

	if d.Required() && isBlank(value) {
		return []string{"is required"}
	}

	var msgs []string
	if rules := rulesFor(d.Rules); rules != "" {
		msgs = append(msgs, v.runRules(rules, value)...)
	}
	for i, prg := range d.programs {
		out, _, err := prg.Eval(map[string]any{"value": value})
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("expression %q failed: %v", d.Expressions[i], err))
			continue
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			msgs = append(msgs, fmt.Sprintf("must satisfy %s", d.Expressions[i]))
		}
	}
	return msgs
}

func (v *Validator) runRules(rules string, value any) (msgs []string) {
	defer func() {
		if r := recover(); r != nil {
			msgs = []string{fmt.Sprintf("rules %q cannot apply to a %T value", rules, value)}
		}
	}()
	err := v.validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	for _, fe := range verrs {
		msgs = append(msgs, ruleMessage(fe.Tag(), fe.Param()))
	}
	return msgs
}

func ruleMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + param
	case "max", "lte":
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "len":
		return "must have length " + param
	case "oneof":
		return "must be one of [" + param + "]"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "hostname", "fqdn":
		return "must be a valid hostname"
	case "timezone":
		return "must be a valid time zone"
	}
	if param != "" {
		return fmt.Sprintf("failed the %s=%s rule", tag, param)
	}
	return fmt.Sprintf("failed the %s rule", tag)
}

// rulesFor drops "required": null is handled by Validate and blank values by
// isBlank, while validator would also reject numeric zero and false.
func rulesFor(rules string) string {
	if rules == "" {
		return rules
	}
	parts := strings.Split(rules, ",")
	kept := parts[:0]
	for _, p := range parts {
		if p != "required" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}

// isBlank reports empty strings, arrays and objects.
func isBlank(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func checkFieldType(d *Definition, value any) string {
	switch ft := d.Field.Type; {
	case ft == FieldNumber:
		if _, ok := value.(float64); !ok {
			return "must be a number"
		}
	case ft == FieldCheckbox:
		if _, ok := value.(bool); !ok {
			return "must be true or false"
		}
	case ft == FieldSelect:
		for _, opt := range d.Field.Options {
			if reflect.DeepEqual(opt.Value, value) {
				return ""
			}
		}
		return "must be one of the listed options"
	case ft.stringValued():
		if _, ok := value.(string); !ok {
			return "must be a string"
		}
	}
	return ""
}
