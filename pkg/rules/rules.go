package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

// CodeInvalidType is reported when a rule receives a value of the wrong kind,
// e.g. a number for a string rule.
const CodeInvalidType = "invalidType"

// Register adds every built-in rule to reg. Existing types with the same name
// are replaced.
func Register(reg *validation.Registry) error {
	return reg.RegisterBatch(Registrations())
}

// Registrations lists the built-in rules for callers that want to pick a subset.
func Registrations() []validation.Registration {
	regs := make([]validation.Registration, 0, 48)
	regs = append(regs, stringRules()...)
	regs = append(regs, formatRules()...)
	regs = append(regs, numericRules()...)
	regs = append(regs, choiceRules()...)
	regs = append(regs, collectionRules()...)
	regs = append(regs, fieldRules()...)
	regs = append(regs, passwordRules()...)
	regs = append(regs, dateRules()...)
	regs = append(regs, transformRules()...)
	return regs
}

func plain(typ, description string, v validation.Validator) validation.Registration {
	return validation.Registration{
		Type:      typ,
		Validator: v,
		Metadata:  &validation.Metadata{Description: description},
	}
}

func factory(typ, description string, params map[string]any, f validation.Factory) validation.Registration {
	return validation.Registration{
		Type:    typ,
		Factory: f,
		Metadata: &validation.Metadata{
			Description:     description,
			ParameterSchema: params,
		},
	}
}

// decode maps spec params onto a typed struct. Input is weakly typed so that
// numbers read back from JSON as float64 still land in int fields.
func decode[T any](params map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &out,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(params); err != nil {
		return out, err
	}
	return out, nil
}

func missing(name string) error {
	return fmt.Errorf("param %q is required", name)
}

// check adapts a predicate over strings into a validator. Empty values pass:
// presence is the job of the required rule.
func check(code string, ok func(string) bool, params map[string]any) validation.Validator {
	return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
		if validation.IsEmpty(value) {
			return validation.Pass(), nil
		}
		s, isString := value.(string)
		if !isString {
			return invalidType(vctx, "string"), nil
		}
		if !ok(s) {
			return vctx.Fail(code, params), nil
		}
		return validation.Pass(), nil
	}
}

func invalidType(vctx validation.Context, expected string) validation.Result {
	return vctx.Fail(CodeInvalidType, map[string]any{"expected": expected})
}

// toFloat accepts any Go number, json.Number, or a numeric string.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// items returns v as a generic slice when it is a slice or array.
func items(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
