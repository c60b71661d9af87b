package async

import "errors"

var (
	ErrTimeout = errors.New("async: gave up waiting for result")
	ErrPanic   = errors.New("async: function panicked")
)
