package transcription

import "strings"

// NormalizeText trims the transcript and collapses runs of internal
// whitespace into single spaces. Providers apply this before returning a
// Result or invoking an OnDelta callback.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeOptional normalizes an optional string field: leading and
// trailing whitespace is removed and a blank value becomes empty.
func NormalizeOptional(value string) string {
	return strings.TrimSpace(value)
}
