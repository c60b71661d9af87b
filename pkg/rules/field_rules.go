package rules

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

type requiredIfParams struct {
	Field  string `mapstructure:"field"`
	When   string `mapstructure:"when"`
	Equals any    `mapstructure:"equals"`
}

func fieldRules() []validation.Registration {
	return []validation.Registration{
		factory("matchesField", "value equals another field, e.g. a password confirmation",
			map[string]any{"field": "string"}, matchesField),
		factory("requiredIf", "form rule: field is present when another field is set or equals a value",
			map[string]any{"field": "string", "when": "string", "equals": "any"}, requiredIf),
	}
}

func matchesField(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Field string `mapstructure:"field"`
	}](params)
	if err != nil {
		return nil, err
	}
	if p.Field == "" {
		return nil, missing("field")
	}
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		other, _ := vctx.Value(p.Field)
		if !reflect.DeepEqual(value, other) {
			return vctx.Fail("matchesField", map[string]any{"other": p.Field}), nil
		}
		return validation.Pass(), nil
	}, nil
}

// requiredIf is a form-level rule: empty optional fields never reach field
// validators, so the check runs over the validated record instead.
func requiredIf(params map[string]any) (validation.Validator, error) {
	p, err := decode[requiredIfParams](params)
	if err != nil {
		return nil, err
	}
	if p.Field == "" {
		return nil, missing("field")
	}
	if p.When == "" {
		return nil, missing("when")
	}
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		record, ok := value.(map[string]any)
		if !ok {
			return invalidType(vctx, "object"), nil
		}
		trigger, ok := record[p.When]
		if !ok {
			trigger, ok = vctx.Value(p.When)
		}
		triggered := ok && !validation.IsEmpty(trigger)
		if triggered && p.Equals != nil {
			triggered = fmt.Sprint(trigger) == fmt.Sprint(p.Equals)
		}
		if triggered && validation.IsEmpty(record[p.Field]) {
			return validation.Fail(validation.Error{
				Field:  joinField(vctx.FieldPath, p.Field),
				Code:   validation.CodeRequired,
				Params: map[string]any{"when": p.When},
			}), nil
		}
		return validation.Pass(), nil
	}, nil
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
