package schema

import (
	"fmt"
	"slices"
	"time"
)

// Params holds validator arguments.
type Params = map[string]any

// ValidatorSpec identifies one validator by its registry type and carries its arguments.
type ValidatorSpec struct {
	Type    string `json:"type" yaml:"type"`
	Params  Params `json:"params,omitempty" yaml:"params,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Async   bool   `json:"async,omitempty" yaml:"async,omitempty"`
}

// FieldSchema is the ordered validator list and metadata of one field.
type FieldSchema struct {
	Validators []ValidatorSpec `json:"validators" yaml:"validators"`
	Required   bool            `json:"required,omitempty" yaml:"required,omitempty"`
	DependsOn  []string        `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// RequiredType is the validator type that marks a field as required when
// listed among its validators.
const RequiredType = "required"

// IsRequired reports whether the field must be non-empty, either through the
// Required flag or through a "required" validator in its list.
func (f FieldSchema) IsRequired() bool {
	if f.Required {
		return true
	}
	for _, v := range f.Validators {
		if v.Type == RequiredType {
			return true
		}
	}
	return false
}

// Options tunes form validation. Nil pointers mean "not set", which matters for
// the unknown-key default and for merging.
type Options struct {
	AbortEarly   *bool `json:"abortEarly,omitempty" yaml:"abortEarly,omitempty"`
	StripUnknown *bool `json:"stripUnknown,omitempty" yaml:"stripUnknown,omitempty"`
	AllowUnknown *bool `json:"allowUnknown,omitempty" yaml:"allowUnknown,omitempty"`
	DebounceMs   *int  `json:"debounceMs,omitempty" yaml:"debounceMs,omitempty"`
}

// Bool returns a pointer to b for use in Options literals.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n for use in Options literals.
func Int(n int) *int { return &n }

// AbortEarlyEnabled is false unless abortEarly is set to true.
func (o Options) AbortEarlyEnabled() bool {
	return o.AbortEarly != nil && *o.AbortEarly
}

// StripsUnknown reports whether keys outside the schema are dropped from the
// output. Unknown keys are stripped unless AllowUnknown is explicitly true and
// StripUnknown is not.
func (o Options) StripsUnknown() bool {
	if o.StripUnknown != nil && *o.StripUnknown {
		return true
	}
	return o.AllowUnknown == nil || !*o.AllowUnknown
}

// Debounce returns the configured quiet window, zero when unset.
func (o Options) Debounce() time.Duration {
	if o.DebounceMs == nil || *o.DebounceMs <= 0 {
		return 0
	}
	return time.Duration(*o.DebounceMs) * time.Millisecond
}

// IsZero reports whether no option is set.
func (o Options) IsZero() bool {
	return o.AbortEarly == nil && o.StripUnknown == nil && o.AllowUnknown == nil && o.DebounceMs == nil
}

// Merge returns o overlaid with every option explicitly set in other.
func (o Options) Merge(other Options) Options {
	out := o.clone()
	if other.AbortEarly != nil {
		out.AbortEarly = Bool(*other.AbortEarly)
	}
	if other.StripUnknown != nil {
		out.StripUnknown = Bool(*other.StripUnknown)
	}
	if other.AllowUnknown != nil {
		out.AllowUnknown = Bool(*other.AllowUnknown)
	}
	if other.DebounceMs != nil {
		out.DebounceMs = Int(*other.DebounceMs)
	}
	return out
}

func (o Options) clone() Options {
	var out Options
	if o.AbortEarly != nil {
		out.AbortEarly = Bool(*o.AbortEarly)
	}
	if o.StripUnknown != nil {
		out.StripUnknown = Bool(*o.StripUnknown)
	}
	if o.AllowUnknown != nil {
		out.AllowUnknown = Bool(*o.AllowUnknown)
	}
	if o.DebounceMs != nil {
		out.DebounceMs = Int(*o.DebounceMs)
	}
	return out
}

// Field pairs a field name with its schema.
type Field struct {
	Name   string
	Schema FieldSchema
}

// FormSchema describes a whole record. It is immutable: every accessor
// returns a copy and the only constructors are New, Deserialize and Builder.Build.
type FormSchema struct {
	fields         []Field
	formValidators []ValidatorSpec
	options        Options
}

// New validates and copies the given parts into an immutable FormSchema.
func New(fields []Field, formValidators []ValidatorSpec, opts Options) (*FormSchema, error) {
	form := &FormSchema{
		fields:         cloneFields(fields),
		formValidators: cloneSpecs(formValidators),
		options:        opts.clone(),
	}
	if err := form.check(); err != nil {
		return nil, err
	}
	return form, nil
}

func (f *FormSchema) check() error {
	seen := make(map[string]struct{}, len(f.fields))
	for _, fld := range f.fields {
		if fld.Name == "" {
			return ErrEmptyFieldName
		}
		if _, dup := seen[fld.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateField, fld.Name)
		}
		seen[fld.Name] = struct{}{}
		for _, v := range fld.Schema.Validators {
			if v.Type == "" {
				return fmt.Errorf("%w: field %q", ErrEmptyValidatorType, fld.Name)
			}
		}
	}
	for _, fld := range f.fields {
		for _, dep := range fld.Schema.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("%w: %q depends on %q", ErrUnknownDependency, fld.Name, dep)
			}
		}
	}
	for _, v := range f.formValidators {
		if v.Type == "" {
			return fmt.Errorf("%w: form validator", ErrEmptyValidatorType)
		}
	}
	return nil
}

// Fields returns the fields in declared order.
func (f *FormSchema) Fields() []Field {
	return cloneFields(f.fields)
}

// FieldNames returns field names in declared order.
func (f *FormSchema) FieldNames() []string {
	names := make([]string, len(f.fields))
	for i, fld := range f.fields {
		names[i] = fld.Name
	}
	return names
}

// Field returns the schema of a single field.
func (f *FormSchema) Field(name string) (FieldSchema, bool) {
	for _, fld := range f.fields {
		if fld.Name == name {
			return cloneFieldSchema(fld.Schema), true
		}
	}
	return FieldSchema{}, false
}

// HasField reports whether the schema declares name.
func (f *FormSchema) HasField(name string) bool {
	_, ok := f.Field(name)
	return ok
}

// Len returns the number of fields.
func (f *FormSchema) Len() int { return len(f.fields) }

// FormValidators returns a copy of the whole-record validators.
func (f *FormSchema) FormValidators() []ValidatorSpec {
	return cloneSpecs(f.formValidators)
}

// Options returns the schema options.
func (f *FormSchema) Options() Options {
	return f.options.clone()
}

// Dependents returns, in declared order, the fields that declare a dependency on name.
// Callers use it to decide which fields to revalidate after name changes.
func (f *FormSchema) Dependents(name string) []string {
	var out []string
	for _, fld := range f.fields {
		if slices.Contains(fld.Schema.DependsOn, name) {
			out = append(out, fld.Name)
		}
	}
	return out
}

func cloneFields(in []Field) []Field {
	out := make([]Field, len(in))
	for i, fld := range in {
		out[i] = Field{Name: fld.Name, Schema: cloneFieldSchema(fld.Schema)}
	}
	return out
}

func cloneFieldSchema(in FieldSchema) FieldSchema {
	return FieldSchema{
		Validators: cloneSpecs(in.Validators),
		Required:   in.Required,
		DependsOn:  slices.Clone(in.DependsOn),
	}
}

func cloneSpecs(in []ValidatorSpec) []ValidatorSpec {
	out := make([]ValidatorSpec, len(in))
	for i, s := range in {
		out[i] = cloneSpec(s)
	}
	return out
}

func cloneSpec(in ValidatorSpec) ValidatorSpec {
	out := in
	if in.Params != nil {
		out.Params = cloneValue(in.Params).(map[string]any)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
