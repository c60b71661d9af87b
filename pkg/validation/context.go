package validation

import "github.com/dmitrymomot/validkit/pkg/schema"

// MessageResolver renders user-facing text for an error code. It returns an
// empty string when it has no text, letting the next resolver in line try.
type MessageResolver func(field, code string, params map[string]any) string

// Context is passed to every validator invocation.
type Context struct {
	// FormData is the whole record under validation, for cross-field rules.
	FormData     map[string]any
	FieldPath    string
	IsSubmitting bool
	Resolve      MessageResolver
	Options      schema.Options
}

// Message renders code through the context's resolver, or returns "" if none is set.
func (c Context) Message(code string, params map[string]any) string {
	if c.Resolve == nil {
		return ""
	}
	return c.Resolve(c.FieldPath, code, params)
}

// Value returns another field's raw value from FormData.
func (c Context) Value(field string) (any, bool) {
	if c.FormData == nil {
		return nil, false
	}
	v, ok := c.FormData[field]
	return v, ok
}

// WithField returns a copy of c targeting another field path.
func (c Context) WithField(path string) Context {
	c.FieldPath = path
	return c
}

// Fail is a shorthand for a failed result attributed to the context's field.
func (c Context) Fail(code string, params map[string]any) Result {
	return Fail(Error{Field: c.FieldPath, Code: code, Params: params})
}
