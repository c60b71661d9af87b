package config

import "errors"

var (
	ErrParsingConfig     = errors.New("config: failed to parse environment variables")
	ErrInvalidConfigType = errors.New("config: target is not a struct")
	ErrLoadingEnvFile    = errors.New("config: failed to load env file")
	ErrNilPointer        = errors.New("config: nil pointer")
)
