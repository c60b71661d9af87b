package openapi

import "errors"

var (
	ErrEmptyDocument     = errors.New("openapi: document payload is empty")
	ErrLoadDocument      = errors.New("openapi: failed to load document")
	ErrInvalidDocument   = errors.New("openapi: document failed validation")
	ErrComponentNotFound = errors.New("openapi: component schema not found")
	ErrNotObject         = errors.New("openapi: component schema is not an object")
	ErrInvalidExtension  = errors.New("openapi: invalid validation extension")
)
