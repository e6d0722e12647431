package oauth

import "time"

// Method identifies the active login method.
type Method string

const (
	// MethodNone means no login is configured.
	MethodNone Method = "none"
	// MethodChatGPT means the user is logged in via ChatGPT OAuth.
	MethodChatGPT Method = "chatgpt_oauth"
	// MethodAPIKey means a plain API key is configured instead of OAuth.
	MethodAPIKey Method = "api_key"
)

// Credentials holds a ChatGPT OAuth token set. Credentials are owned by
// the Manager and mutated only by a successful refresh.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresAt is the absolute access-token expiry in epoch seconds.
	ExpiresAt int64  `json:"expiresAt"`
	AccountID string `json:"accountId"`
}

// Store persists credentials between runs. Read and write failures are
// reported as provider errors; absent credentials are reported as nil,
// not an error.
type Store interface {
	// Method returns the currently active login method.
	Method() (Method, error)
	// Credentials returns the stored ChatGPT credentials, or nil when the
	// user has never logged in.
	Credentials() (*Credentials, error)
	// SaveCredentials replaces the stored ChatGPT credentials.
	SaveCredentials(creds *Credentials) error
}

// NowEpochSeconds returns the current time in epoch seconds.
func NowEpochSeconds() int64 {
	return time.Now().Unix()
}
