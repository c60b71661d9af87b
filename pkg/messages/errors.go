package messages

import "errors"

var (
	ErrNilAdapter        = errors.New("messages: adapter is nil")
	ErrEmptyPath         = errors.New("messages: file path is empty")
	ErrUnsupportedFormat = errors.New("messages: unsupported catalog format")
	ErrReadFile          = errors.New("messages: failed to read catalog file")
	ErrParse             = errors.New("messages: failed to parse catalog")
	ErrInvalidStructure  = errors.New("messages: invalid catalog structure")
	ErrLoadCancelled     = errors.New("messages: loading cancelled")
	ErrNoMessages        = errors.New("messages: no messages found")
)
