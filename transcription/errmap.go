package transcription

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorBodyExcerpt caps the raw-body fallback used as an error message.
const maxErrorBodyExcerpt = 300

// MapHTTPStatus maps a non-2xx HTTP status to the error taxonomy:
// 401/403 mean Authentication, 429 means RateLimited, 408 and server
// errors mean Network, everything else is a Provider error.
func MapHTTPStatus(status int, message string) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthenticationError(message)
	case status == http.StatusTooManyRequests:
		return RateLimitedError(message)
	case status == http.StatusRequestTimeout || status >= 500:
		return NetworkError(message)
	default:
		return ProviderError(message)
	}
}

// ErrorMessageFromBody extracts a human-readable error message from a
// backend response body. It looks for `error.message`, a string-valued
// `error`, then `message`; if none parses it falls back to a truncated
// excerpt of the raw body. Returns "" when the body carries nothing usable.
func ErrorMessageFromBody(body string) string {
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		switch v := payload["error"].(type) {
		case string:
			if msg := strings.TrimSpace(v); msg != "" {
				return msg
			}
		case map[string]any:
			if inner, ok := v["message"].(string); ok {
				if msg := strings.TrimSpace(inner); msg != "" {
					return msg
				}
			}
		}
		if v, ok := payload["message"].(string); ok {
			if msg := strings.TrimSpace(v); msg != "" {
				return msg
			}
		}
	}
	return TruncateBody(body)
}

// StatusMessage builds the default message for a failed HTTP call when the
// body carried no usable error text.
func StatusMessage(backend string, status int) string {
	return fmt.Sprintf("%s request failed with status %d", backend, status)
}

// TruncateBody trims a response body and caps it for use in error messages.
func TruncateBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) <= maxErrorBodyExcerpt {
		return trimmed
	}
	return trimmed[:maxErrorBodyExcerpt] + "..."
}
