// Package oauth manages ChatGPT OAuth credentials for session-bound
// transcription providers. The Manager produces a valid access-token /
// account-id pair on demand, refreshing tokens that are within the expiry
// safety margin. Refresh failures always surface as authentication errors
// because the user-actionable remedy (re-login) is the same regardless of
// the underlying cause.
package oauth
