package rules

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

type boundParams struct {
	Min *float64 `mapstructure:"min"`
	Max *float64 `mapstructure:"max"`
}

func numericRules() []validation.Registration {
	return []validation.Registration{
		factory("min", "number is at least min", map[string]any{"min": "number"}, minRule),
		factory("max", "number is at most max", map[string]any{"max": "number"}, maxRule),
		factory("range", "number lies within [min, max]", map[string]any{"min": "number", "max": "number"}, rangeRule),
		plain("integer", "number has no fractional part", number("integer", func(f float64) bool {
			return f == math.Trunc(f)
		}, nil)),
	}
}

// number adapts a predicate over numbers. Numeric strings are accepted since
// form inputs usually arrive as text.
func number(code string, ok func(float64) bool, params map[string]any) validation.Validator {
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if validation.IsEmpty(value) {
			return validation.Pass(), nil
		}
		f, isNumber := toFloat(value)
		if !isNumber || math.IsNaN(f) {
			return invalidType(vctx, "number"), nil
		}
		if !ok(f) {
			return vctx.Fail(code, params), nil
		}
		return validation.Pass(), nil
	}
}

func minRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[boundParams](params)
	if err != nil {
		return nil, err
	}
	if p.Min == nil {
		return nil, missing("min")
	}
	lo := *p.Min
	return number("min", func(f float64) bool { return f >= lo }, map[string]any{"min": lo}), nil
}

func maxRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[boundParams](params)
	if err != nil {
		return nil, err
	}
	if p.Max == nil {
		return nil, missing("max")
	}
	hi := *p.Max
	return number("max", func(f float64) bool { return f <= hi }, map[string]any{"max": hi}), nil
}

func rangeRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[boundParams](params)
	if err != nil {
		return nil, err
	}
	if p.Min == nil {
		return nil, missing("min")
	}
	if p.Max == nil {
		return nil, missing("max")
	}
	lo, hi := *p.Min, *p.Max
	if lo > hi {
		return nil, fmt.Errorf("min %v is greater than max %v", lo, hi)
	}
	return number("range", func(f float64) bool {
		return f >= lo && f <= hi
	}, map[string]any{"min": lo, "max": hi}), nil
}
