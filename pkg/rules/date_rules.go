package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

const defaultLayout = time.DateOnly

type dateParams struct {
	Layout string `mapstructure:"layout"`
	// Date is a literal in Layout, or "now".
	Date string `mapstructure:"date"`
	// Field compares against another field of the record instead of Date.
	Field string `mapstructure:"field"`
}

func dateRules() []validation.Registration {
	bound := map[string]any{"date": "string", "field": "string", "layout": "string"}
	return []validation.Registration{
		factory("date", "string parses as a date in layout (default 2006-01-02)", map[string]any{"layout": "string"}, dateRule),
		factory("dateBefore", "date is strictly before date, now, or another field", bound, func(params map[string]any) (validation.Validator, error) {
			return dateCompare("dateBefore", params, time.Time.Before)
		}),
		factory("dateAfter", "date is strictly after date, now, or another field", bound, func(params map[string]any) (validation.Validator, error) {
			return dateCompare("dateAfter", params, time.Time.After)
		}),
	}
}

func dateRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[dateParams](params)
	if err != nil {
		return nil, err
	}
	layout := layoutOr(p.Layout)
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if validation.IsEmpty(value) {
			return validation.Pass(), nil
		}
		if _, ok := toTime(value, layout); !ok {
			return vctx.Fail("date", map[string]any{"layout": layout}), nil
		}
		return validation.Pass(), nil
	}, nil
}

func dateCompare(code string, params map[string]any, cmp func(time.Time, time.Time) bool) (validation.Validator, error) {
	p, err := decode[dateParams](params)
	if err != nil {
		return nil, err
	}
	if p.Date == "" && p.Field == "" {
		return nil, missing("date")
	}
	layout := layoutOr(p.Layout)
	var fixed time.Time
	if p.Date != "" && p.Date != "now" {
		fixed, err = time.Parse(layout, p.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", p.Date, err)
		}
	}

	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if validation.IsEmpty(value) {
			return validation.Pass(), nil
		}
		t, ok := toTime(value, layout)
		if !ok {
			return vctx.Fail("date", map[string]any{"layout": layout}), nil
		}

		ref, label := fixed, p.Date
		switch {
		case p.Field != "":
			other, found := vctx.Value(p.Field)
			if !found || validation.IsEmpty(other) {
				return validation.Pass(), nil
			}
			if ref, ok = toTime(other, layout); !ok {
				return validation.Pass(), nil
			}
			label = p.Field
		case p.Date == "now":
			ref = time.Now()
		}
		if !cmp(t, ref) {
			return vctx.Fail(code, map[string]any{"date": label}), nil
		}
		return validation.Pass(), nil
	}, nil
}

func layoutOr(layout string) string {
	if layout == "" {
		return defaultLayout
	}
	return layout
}

func toTime(v any, layout string) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(layout, t)
		if err != nil {
			// RFC 3339 timestamps are accepted regardless of layout.
			parsed, err = time.Parse(time.RFC3339, t)
		}
		return parsed, err == nil
	}
	return time.Time{}, false
}
