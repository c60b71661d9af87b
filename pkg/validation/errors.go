package validation

import "errors"

// Error codes produced by the engine itself. Rule failures use the rule type as code.
const (
	CodeRequired            = "required"
	CodeValidationError     = "validationError"
	CodeSchemaParseError    = "schemaParseError"
	CodeValidationTimeout   = "validationTimeout"
	CodeNetworkError        = "networkError"
	CodeUnknownValidator    = "unknownValidator"
	CodeValidationCancelled = "validationCancelled"
)

var (
	ErrEmptyType         = errors.New("validation: validator type is empty")
	ErrNilValidator      = errors.New("validation: nil validator")
	ErrUnknownValidator  = errors.New("validation: unknown validator type")
	ErrInvalidParams     = errors.New("validation: invalid validator params")
	ErrValidatorPanic    = errors.New("validation: validator panicked")
	ErrUnsupportedSchema = errors.New("validation: unsupported schema source")
	ErrNilSchema         = errors.New("validation: nil schema")
)

func isSystemCode(code string) bool {
	switch code {
	case CodeValidationError, CodeSchemaParseError, CodeValidationTimeout,
		CodeNetworkError, CodeUnknownValidator, CodeValidationCancelled:
		return true
	}
	return false
}
