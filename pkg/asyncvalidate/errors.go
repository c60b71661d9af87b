package asyncvalidate

import "errors"

var (
	ErrNilValidator = errors.New("asyncvalidate: nil validator")
	ErrEmptyFieldID = errors.New("asyncvalidate: empty field identifier")

	// ErrSuperseded is the cancellation cause of a run replaced by a newer one for the same field.
	ErrSuperseded = errors.New("asyncvalidate: superseded by a newer validation")
	// ErrCancelled is the cancellation cause of a run stopped through CancelValidation.
	ErrCancelled = errors.New("asyncvalidate: validation cancelled")
)
