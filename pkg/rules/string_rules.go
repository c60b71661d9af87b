package rules

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

var (
	alphaRegex        = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	numericRegex      = regexp.MustCompile(`^[0-9]+$`)
	slugRegex         = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

type lengthParams struct {
	Min *int `mapstructure:"min"`
	Max *int `mapstructure:"max"`
}

type patternParams struct {
	Pattern     string `mapstructure:"pattern"`
	Description string `mapstructure:"description"`
}

func stringRules() []validation.Registration {
	return []validation.Registration{
		plain("required", "value must be present", required),
		factory("minLength", "string has at least min characters", map[string]any{"min": "int"}, minLength),
		factory("maxLength", "string has at most max characters", map[string]any{"max": "int"}, maxLength),
		factory("length", "string has exactly length characters", map[string]any{"length": "int"}, exactLength),
		factory("pattern", "string matches a regular expression", map[string]any{"pattern": "string", "description": "string"}, pattern),
		plain("alpha", "letters only", check("alpha", alphaRegex.MatchString, nil)),
		plain("alphanumeric", "letters and digits only", check("alphanumeric", alphanumericRegex.MatchString, nil)),
		plain("numeric", "digits only", check("numeric", numericRegex.MatchString, nil)),
		plain("slug", "lowercase words joined by hyphens", check("slug", slugRegex.MatchString, nil)),
	}
}

func required(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
	if validation.IsEmpty(value) {
		return vctx.Fail(validation.CodeRequired, nil), nil
	}
	return validation.Pass(), nil
}

func minLength(params map[string]any) (validation.Validator, error) {
	p, err := decode[lengthParams](params)
	if err != nil {
		return nil, err
	}
	if p.Min == nil {
		return nil, missing("min")
	}
	minLen := *p.Min
	return check("minLength", func(s string) bool {
		return utf8.RuneCountInString(s) >= minLen
	}, map[string]any{"min": minLen}), nil
}

func maxLength(params map[string]any) (validation.Validator, error) {
	p, err := decode[lengthParams](params)
	if err != nil {
		return nil, err
	}
	if p.Max == nil {
		return nil, missing("max")
	}
	maxLen := *p.Max
	return check("maxLength", func(s string) bool {
		return utf8.RuneCountInString(s) <= maxLen
	}, map[string]any{"max": maxLen}), nil
}

func exactLength(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Length *int `mapstructure:"length"`
	}](params)
	if err != nil {
		return nil, err
	}
	if p.Length == nil {
		return nil, missing("length")
	}
	n := *p.Length
	return check("length", func(s string) bool {
		return utf8.RuneCountInString(s) == n
	}, map[string]any{"length": n}), nil
}

// pattern compiles once at bind time, so a bad expression surfaces as a
// binding fault instead of failing on every value.
func pattern(params map[string]any) (validation.Validator, error) {
	p, err := decode[patternParams](params)
	if err != nil {
		return nil, err
	}
	if p.Pattern == "" {
		return nil, missing("pattern")
	}
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	out := map[string]any{"pattern": p.Pattern}
	if p.Description != "" {
		out["description"] = p.Description
	}
	return check("pattern", re.MatchString, out), nil
}
