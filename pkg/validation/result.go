package validation

import (
	"fmt"
	"strings"
)

// Error is a single structured validation failure.
type Error struct {
	Field   string         `json:"field"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

func (e Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Field == "" {
		return msg
	}
	return e.Field + ": " + msg
}

// Errors is an ordered collection of validation errors.
type Errors []Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether any error belongs to field.
func (es Errors) Has(field string) bool {
	for _, e := range es {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Get returns the errors reported for field, in order.
func (es Errors) Get(field string) []Error {
	var out []Error
	for _, e := range es {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// ByField groups errors by field.
func (es Errors) ByField() map[string][]Error {
	out := make(map[string][]Error)
	for _, e := range es {
		out[e.Field] = append(out[e.Field], e)
	}
	return out
}

// Fields returns the distinct field names in first-seen order.
func (es Errors) Fields() []string {
	var fields []string
	seen := make(map[string]struct{})
	for _, e := range es {
		if _, ok := seen[e.Field]; !ok {
			seen[e.Field] = struct{}{}
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// Codes returns the codes reported for field, in order.
func (es Errors) Codes(field string) []string {
	var codes []string
	for _, e := range es {
		if e.Field == field {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// Result is the outcome of one validator, one field or a whole form.
// Success is true exactly when Errors is empty.
type Result struct {
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Errors   Errors `json:"errors,omitempty"`
	Warnings Errors `json:"warnings,omitempty"`
}

// Pass is a successful result that does not transform the value.
func Pass() Result {
	return Result{Success: true}
}

// PassWith is a successful result whose data replaces the value for later validators.
func PassWith(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed result. Errors without a code are completed by the engine
// with the validator type.
func Fail(errs ...Error) Result {
	if len(errs) == 0 {
		errs = Errors{{}}
	}
	return Result{Errors: errs}
}

// Failf builds a failed result with a single code and formatted message.
func Failf(code, format string, args ...any) Result {
	return Fail(Error{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Err returns the errors as an error value, or nil on success.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

func (r Result) normalize() Result {
	r.Success = len(r.Errors) == 0
	if !r.Success {
		r.Data = nil
	}
	return r
}
