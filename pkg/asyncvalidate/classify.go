package asyncvalidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/dmitrymomot/validkit/pkg/async"
)

// NetworkErrorKind classifies faults raised by network-backed validators.
type NetworkErrorKind int

const (
	KindUnknown NetworkErrorKind = iota
	KindTimeout
	KindConnection
	KindServer
	KindRateLimited
)

func (k NetworkErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindServer:
		return "server"
	case KindRateLimited:
		return "rateLimited"
	default:
		return "unknown"
	}
}

// IsRetryable reports whether a fault of this kind may succeed on another attempt.
func IsRetryable(kind NetworkErrorKind) bool {
	return kind != KindUnknown
}

// NetworkError is a classified network fault. Validators return it (wrapped or
// not) as their error to opt into retry handling.
type NetworkError struct {
	Kind       NetworkErrorKind
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	msg := "asyncvalidate: " + e.Kind.String() + " network error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewStatusError classifies an HTTP status: 5xx is a server fault, 429 is rate
// limiting, 408 a timeout; anything else is not retryable.
func NewStatusError(code int) *NetworkError {
	return &NetworkError{Kind: kindForStatus(code), StatusCode: code, Err: errors.New(http.StatusText(code))}
}

func kindForStatus(code int) NetworkErrorKind {
	switch {
	case code >= 500:
		return KindServer
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout:
		return KindTimeout
	default:
		return KindUnknown
	}
}

// Classify maps err to a NetworkErrorKind and, when known, an HTTP status code.
func Classify(err error) (NetworkErrorKind, int) {
	if err == nil {
		return KindUnknown, 0
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind, ne.StatusCode
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, async.ErrTimeout) {
		return KindTimeout, 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, 0
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return KindConnection, 0
	}
	return KindUnknown, 0
}

func isNetworkFault(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	kind, _ := Classify(err)
	return kind != KindUnknown
}
