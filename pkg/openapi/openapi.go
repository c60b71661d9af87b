package openapi

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"

	"github.com/dmitrymomot/validkit/pkg/schema"
)

// Extension keys understood on component and property schemas.
const (
	ExtValidators     = "x-validators"
	ExtFormValidators = "x-form-validators"
	ExtOptions        = "x-validation-options"
)

// Load parses and validates an OpenAPI 3 document. External references are
// not followed.
func Load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDocument, err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Components lists the component schema names of a document, sorted.
func Components(ctx context.Context, raw []byte) ([]string, error) {
	doc, err := Load(ctx, raw)
	if err != nil {
		return nil, err
	}
	if doc.Components == nil {
		return nil, nil
	}
	return slices.Sorted(maps.Keys(doc.Components.Schemas)), nil
}

// FromDocument converts the named component schema of an OpenAPI document
// into a FormSchema.
func FromDocument(ctx context.Context, raw []byte, component string) (*schema.FormSchema, error) {
	doc, err := Load(ctx, raw)
	if err != nil {
		return nil, err
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, component)
	}
	return FromSchema(ref.Value)
}

// FromSchema converts an object schema into a FormSchema. Properties become
// fields in name order; keywords map onto built-in rules:
//
//	required             -> required flag
//	minLength/maxLength  -> minLength/maxLength
//	pattern              -> pattern
//	format               -> email, url, uuid, ip, date
//	enum                 -> oneOf
//	minimum/maximum      -> min, max or range; integer type -> integer
//	minItems/maxItems    -> minItems/maxItems; uniqueItems -> uniqueItems
//
// Validators listed under x-validators are appended after the mapped ones.
// x-form-validators and x-validation-options on the object set the form
// validators and options.
func FromSchema(s *openapi3.Schema) (*schema.FormSchema, error) {
	if s == nil || (s.Type != nil && !s.Type.Is(openapi3.TypeObject)) {
		return nil, ErrNotObject
	}

	b := schema.NewBuilder()
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		fb := b.Field(name)
		if slices.Contains(s.Required, name) {
			fb.Required()
		}
		prop := s.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		for _, spec := range mapProperty(prop.Value) {
			fb.Validate(spec.Type, spec.Params)
		}
		custom, err := specsFromExtension(prop.Value.Extensions, ExtValidators)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		for _, spec := range custom {
			if spec.Async {
				fb.ValidateAsync(spec.Type, spec.Params)
			} else {
				fb.Validate(spec.Type, spec.Params)
			}
			if spec.Message != "" {
				fb.WithMessage(spec.Message)
			}
		}
	}

	formSpecs, err := specsFromExtension(s.Extensions, ExtFormValidators)
	if err != nil {
		return nil, err
	}
	for _, spec := range formSpecs {
		b.FormValidator(spec.Type, spec.Params)
	}

	if raw, ok := s.Extensions[ExtOptions]; ok {
		var opts schema.Options
		if err := mapstructure.WeakDecode(raw, &opts); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidExtension, ExtOptions, err)
		}
		b.WithOptions(opts)
	}

	return b.Build()
}

func mapProperty(p *openapi3.Schema) []schema.ValidatorSpec {
	var out []schema.ValidatorSpec
	add := func(typ string, params schema.Params) {
		out = append(out, schema.ValidatorSpec{Type: typ, Params: params})
	}

	switch {
	case p.Type.Is(openapi3.TypeString):
		if p.MinLength > 0 {
			add("minLength", schema.Params{"min": int(p.MinLength)})
		}
		if p.MaxLength != nil {
			add("maxLength", schema.Params{"max": int(*p.MaxLength)})
		}
		if p.Pattern != "" {
			add("pattern", schema.Params{"pattern": p.Pattern})
		}
		if typ, params, ok := formatRule(p.Format); ok {
			add(typ, params)
		}
	case p.Type.Is(openapi3.TypeInteger), p.Type.Is(openapi3.TypeNumber):
		if p.Type.Is(openapi3.TypeInteger) {
			add("integer", nil)
		}
		switch {
		case p.Min != nil && p.Max != nil:
			add("range", schema.Params{"min": *p.Min, "max": *p.Max})
		case p.Min != nil:
			add("min", schema.Params{"min": *p.Min})
		case p.Max != nil:
			add("max", schema.Params{"max": *p.Max})
		}
	case p.Type.Is(openapi3.TypeArray):
		if p.MinItems > 0 {
			add("minItems", schema.Params{"min": int(p.MinItems)})
		}
		if p.MaxItems != nil {
			add("maxItems", schema.Params{"max": int(*p.MaxItems)})
		}
		if p.UniqueItems {
			add("uniqueItems", nil)
		}
	}

	if len(p.Enum) > 0 {
		add("oneOf", schema.Params{"values": slices.Clone(p.Enum)})
	}
	return out
}

func formatRule(format string) (string, schema.Params, bool) {
	switch format {
	case "email":
		return "email", nil, true
	case "uri", "url":
		return "url", nil, true
	case "uuid":
		return "uuid", nil, true
	case "ipv4":
		return "ip", schema.Params{"version": 4}, true
	case "ipv6":
		return "ip", schema.Params{"version": 6}, true
	case "date":
		return "date", nil, true
	case "date-time":
		return "date", schema.Params{"layout": time.RFC3339}, true
	default:
		return "", nil, false
	}
}

func specsFromExtension(ext map[string]any, key string) ([]schema.ValidatorSpec, error) {
	raw, ok := ext[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var specs []schema.ValidatorSpec
	if err := mapstructure.WeakDecode(raw, &specs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidExtension, key, err)
	}
	for _, spec := range specs {
		if spec.Type == "" {
			return nil, fmt.Errorf("%w: %s: validator type is empty", ErrInvalidExtension, key)
		}
	}
	return specs, nil
}
