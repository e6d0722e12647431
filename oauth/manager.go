package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/transcription"
)

const (
	defaultTokenEndpoint  = "https://auth.openai.com/oauth/token"
	defaultClientID       = "app_EMoamEEZ73f0CkXaXp7hrann"
	defaultRefreshTimeout = 30 * time.Second

	// expirySafetyMarginSecs is the window before expiry inside which a
	// token is refreshed rather than used as-is.
	expirySafetyMarginSecs = 60
)

// Config holds configuration for the token Manager.
type Config struct {
	TokenEndpoint  string        `json:"token_endpoint" yaml:"token_endpoint"`
	ClientID       string        `json:"client_id" yaml:"client_id"`
	RefreshTimeout time.Duration `json:"refresh_timeout" yaml:"refresh_timeout"`
}

// AuthContext is a valid access-token / account-id pair ready for use by
// a session-bound provider.
type AuthContext struct {
	AccessToken string
	AccountID   string
}

// Manager produces valid auth contexts on demand, refreshing stored
// credentials when they are at or past the expiry safety margin.
type Manager struct {
	store  Store
	cfg    Config
	client *http.Client
	log    *logger.Logger

	// now is injectable for tests.
	now func() int64
}

// NewManager creates a token Manager over the given credential store.
func NewManager(cfg Config, store Store) *Manager {
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = defaultTokenEndpoint
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}
	if cfg.RefreshTimeout == 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	return &Manager{
		store:  store,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RefreshTimeout},
		log:    logger.WithComponent("oauth"),
		now:    NowEpochSeconds,
	}
}

// AuthContext returns a valid access-token / account-id pair, refreshing
// first when the stored token expires within the safety margin. Refresh
// failures surface as authentication errors regardless of root cause.
func (m *Manager) AuthContext(ctx context.Context) (*AuthContext, error) {
	method, err := m.store.Method()
	if err != nil {
		return nil, transcription.ProviderError(err.Error()).WithCause(err)
	}
	if method != MethodChatGPT {
		return nil, transcription.AuthenticationError("ChatGPT OAuth login is not active")
	}

	creds, err := m.store.Credentials()
	if err != nil {
		return nil, transcription.ProviderError(err.Error()).WithCause(err)
	}
	if creds == nil {
		return nil, transcription.AuthenticationError("Missing ChatGPT OAuth credentials. Please login again.")
	}

	if creds.ExpiresAt <= m.now()+expirySafetyMarginSecs {
		m.log.Warn("access token expired or near expiry, refreshing")
		return m.refresh(ctx, creds)
	}

	return &AuthContext{AccessToken: creds.AccessToken, AccountID: creds.AccountID}, nil
}

// LoggedIn reports whether ChatGPT OAuth is the active login method and
// credentials are present. It never touches the network, so providers can
// use it for cheap availability probes.
func (m *Manager) LoggedIn() bool {
	method, err := m.store.Method()
	if err != nil || method != MethodChatGPT {
		return false
	}
	creds, err := m.store.Credentials()
	return err == nil && creds != nil
}

type refreshRequest struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refresh performs the refresh exchange and persists the outcome. The new
// refresh token and account id are adopted only when the response supplies
// replacements; refresh responses are not required to rotate every field.
func (m *Manager) refresh(ctx context.Context, creds *Credentials) (*AuthContext, error) {
	body, err := json.Marshal(refreshRequest{
		ClientID:     m.cfg.ClientID,
		GrantType:    "refresh_token",
		RefreshToken: creds.RefreshToken,
	})
	if err != nil {
		return nil, transcription.AuthenticationError("Unable to build token refresh request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, transcription.AuthenticationError("Unable to build token refresh request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		// Transport failures still mean re-login from the user's side.
		return nil, transcription.AuthenticationError("Token refresh failed. Please login again.").WithCause(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		message := transcription.ErrorMessageFromBody(string(raw))
		if message == "" {
			message = fmt.Sprintf("Token refresh failed with status %d", resp.StatusCode)
		}
		return nil, transcription.AuthenticationError(message)
	}

	var payload refreshResponse
	if err := json.Unmarshal(raw, &payload); err != nil || payload.AccessToken == "" {
		return nil, transcription.AuthenticationError("Token refresh returned an unreadable response").WithCause(err)
	}

	refreshToken := payload.RefreshToken
	if refreshToken == "" {
		refreshToken = creds.RefreshToken
	}

	accountID := accountIDFromTokens(payload.IDToken, payload.AccessToken)
	if accountID == "" {
		accountID = creds.AccountID
	}

	expiresAt := m.now() + payload.ExpiresIn
	updated := &Credentials{
		AccessToken:  payload.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		AccountID:    accountID,
	}
	if err := m.store.SaveCredentials(updated); err != nil {
		return nil, transcription.ProviderError(err.Error()).WithCause(err)
	}

	m.log.Info("access token refreshed", logger.Fields("expires_at", expiresAt))
	return &AuthContext{AccessToken: updated.AccessToken, AccountID: updated.AccountID}, nil
}
