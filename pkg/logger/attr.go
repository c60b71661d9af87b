package logger

import (
	"log/slog"
	"time"
)

// Error logs err under "error". A nil err yields an empty Attr, which slog skips.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Field records the validated field path under the key "field".
func Field(path string) slog.Attr {
	return slog.String("field", path)
}

// ValidatorType records the registry type of a validator under the key "validator".
func ValidatorType(typ string) slog.Attr {
	return slog.String("validator", typ)
}

// ValidationID records the identifier of an async run under the key "validation_id".
// If id is nil, it returns an empty Attr.
func ValidationID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("validation_id", id)
}

// ErrorCode records a validation error code under the key "code".
func ErrorCode(code string) slog.Attr {
	return slog.String("code", code)
}

// Attempt records a 1-based attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records an elapsed time under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
