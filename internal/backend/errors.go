package backend

import "errors"

// Error is returned by every external service client (text generation and speech).
type Error struct {
	Backend string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Backend + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Backend + " error: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Common error codes
// For current and future use across different backends
const (
	ErrCodeAPIKey            = "invalid_api_key"
	ErrCodeRateLimit         = "rate_limit_exceeded"
	ErrCodeServiceDown       = "service_unavailable"
	ErrCodeInvalidInput      = "invalid_input"
	ErrCodeTimeout           = "timeout"
	ErrCodeMalformedResponse = "malformed_response"
)

// Code returns the backend error code carried by err, or "" if err is not a backend error.
func Code(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsMalformed reports whether the backend answered but the expected field was missing.
func IsMalformed(err error) bool {
	return Code(err) == ErrCodeMalformedResponse
}

// IsNetwork reports whether err is a backend failure other than a malformed response:
// unreachable, non-success status, rate limit, timeout or rejected credentials.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	return !IsMalformed(err)
}
