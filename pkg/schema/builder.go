package schema

import (
	"maps"
	"slices"
)

// Builder assembles a FormSchema step by step. A Builder is not safe for
// concurrent use; the schema it builds is.
type Builder struct {
	fields         []Field
	formValidators []ValidatorSpec
	options        Options
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// From returns a builder seeded with a copy of an existing schema.
func From(form *FormSchema) *Builder {
	b := NewBuilder()
	if form == nil {
		return b
	}
	b.fields = form.Fields()
	b.formValidators = form.FormValidators()
	b.options = form.Options()
	return b
}

func (b *Builder) indexOf(name string) int {
	return slices.IndexFunc(b.fields, func(f Field) bool { return f.Name == name })
}

// Field returns a builder for the named field, declaring it if needed.
func (b *Builder) Field(name string) *FieldBuilder {
	if b.indexOf(name) < 0 {
		b.fields = append(b.fields, Field{Name: name, Schema: FieldSchema{Validators: []ValidatorSpec{}}})
	}
	return &FieldBuilder{parent: b, name: name}
}

// SetField declares or replaces a field in one step, keeping its position if it exists.
func (b *Builder) SetField(name string, fs FieldSchema) *Builder {
	fs = cloneFieldSchema(fs)
	if i := b.indexOf(name); i >= 0 {
		b.fields[i].Schema = fs
		return b
	}
	b.fields = append(b.fields, Field{Name: name, Schema: fs})
	return b
}

// RemoveField drops a field and its position.
func (b *Builder) RemoveField(name string) *Builder {
	b.fields = slices.DeleteFunc(b.fields, func(f Field) bool { return f.Name == name })
	return b
}

// HasField reports whether the draft declares name.
func (b *Builder) HasField(name string) bool {
	return b.indexOf(name) >= 0
}

// FormValidator appends a whole-record validator.
func (b *Builder) FormValidator(typ string, params ...Params) *Builder {
	b.formValidators = append(b.formValidators, ValidatorSpec{Type: typ, Params: mergeParams(params)})
	return b
}

// AbortEarly stops validation at the first failing field.
func (b *Builder) AbortEarly(v bool) *Builder {
	b.options.AbortEarly = Bool(v)
	return b
}

// StripUnknown drops keys the schema does not declare.
func (b *Builder) StripUnknown(v bool) *Builder {
	b.options.StripUnknown = Bool(v)
	return b
}

// AllowUnknown keeps undeclared keys in the validated data.
func (b *Builder) AllowUnknown(v bool) *Builder {
	b.options.AllowUnknown = Bool(v)
	return b
}

// Debounce sets the quiet window for live validation, in milliseconds.
func (b *Builder) Debounce(ms int) *Builder {
	b.options.DebounceMs = Int(ms)
	return b
}

// WithOptions overlays every option explicitly set in opts.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.options = b.options.Merge(opts)
	return b
}

// Merge folds another schema into the builder with the same rules as the
// package-level Merge.
func (b *Builder) Merge(other *FormSchema) *Builder {
	if other == nil {
		return b
	}
	for _, fld := range other.fields {
		b.SetField(fld.Name, fld.Schema)
	}
	b.formValidators = append(b.formValidators, other.FormValidators()...)
	b.options = b.options.Merge(other.options)
	return b
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	return &Builder{
		fields:         cloneFields(b.fields),
		formValidators: cloneSpecs(b.formValidators),
		options:        b.options.clone(),
	}
}

// Build validates the accumulated definition and returns an immutable schema.
// The builder stays usable afterwards.
func (b *Builder) Build() (*FormSchema, error) {
	return New(b.fields, b.formValidators, b.options)
}

// MustBuild is like Build but panics on error. Intended for package-level schema variables.
func (b *Builder) MustBuild() *FormSchema {
	form, err := b.Build()
	if err != nil {
		panic(err)
	}
	return form
}

// Stats summarizes the current definition.
func (b *Builder) Stats() Stats {
	return statsOf(b.fields, b.formValidators)
}

// FieldBuilder edits one field of a Builder.
type FieldBuilder struct {
	parent *Builder
	name   string
}

func (fb *FieldBuilder) schema() *FieldSchema {
	i := fb.parent.indexOf(fb.name)
	if i < 0 {
		// Field was removed from the parent meanwhile; redeclare it.
		fb.parent.Field(fb.name)
		i = len(fb.parent.fields) - 1
	}
	return &fb.parent.fields[i].Schema
}

// Required marks the field as required.
func (fb *FieldBuilder) Required() *FieldBuilder {
	fb.schema().Required = true
	return fb
}

// Optional clears the Required flag and drops any "required" validator.
func (fb *FieldBuilder) Optional() *FieldBuilder {
	s := fb.schema()
	s.Required = false
	s.Validators = slices.DeleteFunc(s.Validators, func(v ValidatorSpec) bool { return v.Type == RequiredType })
	return fb
}

// Validate appends a validator. Multiple params maps are merged left to right.
func (fb *FieldBuilder) Validate(typ string, params ...Params) *FieldBuilder {
	s := fb.schema()
	s.Validators = append(s.Validators, ValidatorSpec{Type: typ, Params: mergeParams(params)})
	return fb
}

// ValidateAsync appends a validator flagged for asynchronous execution.
func (fb *FieldBuilder) ValidateAsync(typ string, params ...Params) *FieldBuilder {
	s := fb.schema()
	s.Validators = append(s.Validators, ValidatorSpec{Type: typ, Params: mergeParams(params), Async: true})
	return fb
}

// WithMessage sets the failure message of the most recently added validator.
func (fb *FieldBuilder) WithMessage(msg string) *FieldBuilder {
	s := fb.schema()
	if n := len(s.Validators); n > 0 {
		s.Validators[n-1].Message = msg
	}
	return fb
}

// DependsOn records fields this one reads; Build checks that they exist.
func (fb *FieldBuilder) DependsOn(fields ...string) *FieldBuilder {
	s := fb.schema()
	for _, f := range fields {
		if !slices.Contains(s.DependsOn, f) {
			s.DependsOn = append(s.DependsOn, f)
		}
	}
	return fb
}

// RemoveValidator drops every validator of the given type.
func (fb *FieldBuilder) RemoveValidator(typ string) *FieldBuilder {
	s := fb.schema()
	s.Validators = slices.DeleteFunc(s.Validators, func(v ValidatorSpec) bool { return v.Type == typ })
	return fb
}

// Field switches to another field of the same builder.
func (fb *FieldBuilder) Field(name string) *FieldBuilder {
	return fb.parent.Field(name)
}

// Done returns the parent builder.
func (fb *FieldBuilder) Done() *Builder {
	return fb.parent
}

func mergeParams(params []Params) Params {
	var out Params
	for _, p := range params {
		if len(p) == 0 {
			continue
		}
		if out == nil {
			out = make(Params, len(p))
		}
		maps.Copy(out, cloneValue(p).(map[string]any))
	}
	return out
}

// Merge combines two schemas. Fields of left keep their order; a field also
// present in right takes right's definition; fields only in right are appended
// in right's order. Form validators are concatenated and options explicitly set
// in right win.
func Merge(left, right *FormSchema) (*FormSchema, error) {
	return From(left).Merge(right).Build()
}

// Stats counts the parts of a schema.
type Stats struct {
	Fields          int `json:"fields" yaml:"fields"`
	Validators      int `json:"validators" yaml:"validators"`
	AsyncValidators int `json:"asyncValidators" yaml:"asyncValidators"`
	RequiredFields  int `json:"requiredFields" yaml:"requiredFields"`
	FormValidators  int `json:"formValidators" yaml:"formValidators"`
}

// Stats counts the fields and validators of a built schema.
func (f *FormSchema) Stats() Stats {
	return statsOf(f.fields, f.formValidators)
}

func statsOf(fields []Field, formValidators []ValidatorSpec) Stats {
	st := Stats{Fields: len(fields), FormValidators: len(formValidators)}
	for _, fld := range fields {
		st.Validators += len(fld.Schema.Validators)
		for _, v := range fld.Schema.Validators {
			if v.Async {
				st.AsyncValidators++
			}
		}
		if fld.Schema.IsRequired() {
			st.RequiredFields++
		}
	}
	return st
}
