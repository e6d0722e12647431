package oauth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

func TestAccountIDFromToken_Present(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		authClaimKey: map[string]any{"chatgpt_account_id": "acct-42"},
	})
	if id := accountIDFromToken(token); id != "acct-42" {
		t.Errorf("expected acct-42, got %q", id)
	}
}

func TestAccountIDFromToken_MissingClaim(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{"sub": "user"})
	if id := accountIDFromToken(token); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestAccountIDFromToken_Malformed(t *testing.T) {
	if id := accountIDFromToken("not-a-jwt"); id != "" {
		t.Errorf("expected empty id for malformed token, got %q", id)
	}
	if id := accountIDFromToken(""); id != "" {
		t.Errorf("expected empty id for empty token, got %q", id)
	}
}

func TestAccountIDFromTokens_FirstMatchWins(t *testing.T) {
	idToken := signTestToken(t, jwt.MapClaims{
		authClaimKey: map[string]any{"chatgpt_account_id": "from-id-token"},
	})
	accessToken := signTestToken(t, jwt.MapClaims{
		authClaimKey: map[string]any{"chatgpt_account_id": "from-access-token"},
	})

	if id := accountIDFromTokens(idToken, accessToken); id != "from-id-token" {
		t.Errorf("expected id token to win, got %q", id)
	}
	if id := accountIDFromTokens("", accessToken); id != "from-access-token" {
		t.Errorf("expected fallback to access token, got %q", id)
	}
}
