package schema

import "errors"

var (
	// ErrSchemaParse wraps every failure to decode a serialized schema.
	ErrSchemaParse = errors.New("schema: failed to parse schema")

	ErrEmptyFieldName     = errors.New("schema: field name is empty")
	ErrDuplicateField     = errors.New("schema: duplicate field")
	ErrEmptyValidatorType = errors.New("schema: validator type is empty")
	ErrUnknownDependency  = errors.New("schema: field depends on an undeclared field")
	ErrNilSchema          = errors.New("schema: nil schema")
	ErrMissingFields      = errors.New("schema: document has no fields object")
)
