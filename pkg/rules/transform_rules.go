package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

func transformRules() []validation.Registration {
	return []validation.Registration{
		plain("trim", "removes surrounding whitespace", transform(strings.TrimSpace)),
		plain("lowercase", "lowercases the value", transform(strings.ToLower)),
		plain("uppercase", "uppercases the value", transform(strings.ToUpper)),
		factory("titleCase", "title-cases words for a BCP 47 language (default en)", map[string]any{"language": "string"}, titleCase),
		factory("normalize", "Unicode normalization form NFC, NFD, NFKC or NFKD (default NFC)", map[string]any{"form": "string"}, normalize),
		plain("stripHTML", "removes all HTML markup", transform(stripHTML)),
	}
}

// transform rewrites string values and passes everything else through untouched.
func transform(fn func(string) string) validation.Validator {
	return func(_ context.Context, value any, _ validation.Context) (validation.Result, error) {
		s, ok := value.(string)
		if !ok {
			return validation.PassWith(value), nil
		}
		return validation.PassWith(fn(s)), nil
	}
}

func titleCase(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Language string `mapstructure:"language"`
	}](params)
	if err != nil {
		return nil, err
	}
	tag := language.English
	if p.Language != "" {
		if tag, err = language.Parse(p.Language); err != nil {
			return nil, fmt.Errorf("parse language %q: %w", p.Language, err)
		}
	}
	// cases.Caser is stateful; build one per call.
	return transform(func(s string) string {
		return cases.Title(tag).String(s)
	}), nil
}

func normalize(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Form string `mapstructure:"form"`
	}](params)
	if err != nil {
		return nil, err
	}
	var form norm.Form
	switch strings.ToUpper(p.Form) {
	case "", "NFC":
		form = norm.NFC
	case "NFD":
		form = norm.NFD
	case "NFKC":
		form = norm.NFKC
	case "NFKD":
		form = norm.NFKD
	default:
		return nil, fmt.Errorf("unknown normalization form %q", p.Form)
	}
	return transform(form.String), nil
}

func stripHTML(s string) string {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}
