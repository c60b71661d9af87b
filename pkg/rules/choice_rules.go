package rules

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

type choiceParams struct {
	Values          []any `mapstructure:"values"`
	CaseInsensitive bool  `mapstructure:"caseInsensitive"`
}

func choiceRules() []validation.Registration {
	schema := map[string]any{"values": "[]any", "caseInsensitive": "bool"}
	return []validation.Registration{
		factory("oneOf", "value is one of values", schema, func(params map[string]any) (validation.Validator, error) {
			return choice("oneOf", params, true)
		}),
		factory("notOneOf", "value is none of values", schema, func(params map[string]any) (validation.Validator, error) {
			return choice("notOneOf", params, false)
		}),
	}
}

func choice(code string, params map[string]any, want bool) (validation.Validator, error) {
	p, err := decode[choiceParams](params)
	if err != nil {
		return nil, err
	}
	if len(p.Values) == 0 {
		return nil, missing("values")
	}
	keys := make([]string, len(p.Values))
	for i, v := range p.Values {
		keys[i] = choiceKey(v, p.CaseInsensitive)
	}
	out := map[string]any{"values": strings.Join(keys, ", ")}
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if validation.IsEmpty(value) {
			return validation.Pass(), nil
		}
		if slices.Contains(keys, choiceKey(value, p.CaseInsensitive)) != want {
			return vctx.Fail(code, out), nil
		}
		return validation.Pass(), nil
	}, nil
}

// choiceKey compares numbers by value, so 1 (int) matches 1.0 read from JSON.
func choiceKey(v any, fold bool) string {
	if s, ok := v.(string); ok {
		if fold {
			return strings.ToLower(s)
		}
		return s
	}
	if f, ok := toFloat(v); ok {
		return fmt.Sprint(f)
	}
	return fmt.Sprint(v)
}
