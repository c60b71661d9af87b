package rules

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

type itemsParams struct {
	Min *int `mapstructure:"min"`
	Max *int `mapstructure:"max"`
}

func collectionRules() []validation.Registration {
	return []validation.Registration{
		factory("minItems", "list has at least min items", map[string]any{"min": "int"}, minItems),
		factory("maxItems", "list has at most max items", map[string]any{"max": "int"}, maxItems),
		plain("uniqueItems", "list has no duplicate items", list("uniqueItems", unique, nil)),
	}
}

// list adapts a predicate over slices. Empty values pass, so minItems only
// bites on non-empty lists; mark the field required to reject an empty one.
func list(code string, ok func([]any) bool, params map[string]any) validation.Validator {
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if value == nil {
			return validation.Pass(), nil
		}
		xs, isList := items(value)
		if !isList {
			return invalidType(vctx, "array"), nil
		}
		if !ok(xs) {
			return vctx.Fail(code, params), nil
		}
		return validation.Pass(), nil
	}
}

func minItems(params map[string]any) (validation.Validator, error) {
	p, err := decode[itemsParams](params)
	if err != nil {
		return nil, err
	}
	if p.Min == nil {
		return nil, missing("min")
	}
	n := *p.Min
	return list("minItems", func(xs []any) bool { return len(xs) >= n }, map[string]any{"min": n}), nil
}

func maxItems(params map[string]any) (validation.Validator, error) {
	p, err := decode[itemsParams](params)
	if err != nil {
		return nil, err
	}
	if p.Max == nil {
		return nil, missing("max")
	}
	n := *p.Max
	return list("maxItems", func(xs []any) bool { return len(xs) <= n }, map[string]any{"max": n}), nil
}

// unique compares items by their JSON encoding so maps and nested lists work.
func unique(xs []any) bool {
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		b, err := json.Marshal(x)
		if err != nil {
			return false
		}
		key := string(b)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
