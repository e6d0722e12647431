package transcription

import (
	"errors"
	"fmt"
)

// ErrorKind classifies transcription failures. The set is closed: every
// provider error maps to exactly one kind.
type ErrorKind int

const (
	// KindAuthentication means credentials are missing, expired, or
	// rejected. The remedy is re-login.
	KindAuthentication ErrorKind = iota
	// KindRateLimited means the backend rejected the call due to rate
	// limits. Backoff/retry is the caller's responsibility.
	KindRateLimited
	// KindNetwork means a transient transport failure or timeout.
	KindNetwork
	// KindInvalidResponse means the provider or bridge returned a payload
	// that could not be parsed.
	KindInvalidResponse
	// KindProvider is the catch-all for backend-reported failures.
	KindProvider
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	case KindInvalidResponse:
		return "invalid_response"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error is the unified transcription error type. It always carries a
// human-readable message and is propagated, never silently swallowed.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether retrying the call may succeed without user
// action. Only transient kinds qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindNetwork
}

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// AuthenticationError creates an Error indicating re-login is required.
func AuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// RateLimitedError creates an Error for backend rate limiting.
func RateLimitedError(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// NetworkError creates an Error for transient transport failures.
func NetworkError(message string) *Error {
	return &Error{Kind: KindNetwork, Message: message}
}

// InvalidResponseError creates an Error for malformed provider payloads.
func InvalidResponseError(message string) *Error {
	return &Error{Kind: KindInvalidResponse, Message: message}
}

// ProviderError creates an Error for backend-reported failures.
func ProviderError(message string) *Error {
	return &Error{Kind: KindProvider, Message: message}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindProvider when err is not a
// transcription error.
func KindOf(err error) ErrorKind {
	if te, ok := AsError(err); ok {
		return te.Kind
	}
	return KindProvider
}
