package unique

import "errors"

var (
	ErrNilChecker     = errors.New("unique: checker is nil")
	ErrInvalidURL     = errors.New("unique: invalid endpoint URL")
	ErrCircuitOpen    = errors.New("unique: circuit breaker is open")
	ErrInvalidScope   = errors.New("unique: invalid scope")
	ErrScopeForbidden = errors.New("unique: scope is not allowed")
	ErrBadResponse    = errors.New("unique: unexpected response body")
)
