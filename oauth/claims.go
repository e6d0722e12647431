package oauth

import "github.com/golang-jwt/jwt/v5"

// authClaimKey is the OpenAI claim namespace that carries the ChatGPT
// account id inside issued tokens.
const authClaimKey = "https://api.openai.com/auth"

// accountIDFromTokens extracts the ChatGPT account id from the first token
// that carries one. Tokens are decoded without signature verification; the
// claim is advisory and the backend re-validates the token on every call.
func accountIDFromTokens(tokens ...string) string {
	for _, token := range tokens {
		if id := accountIDFromToken(token); id != "" {
			return id
		}
	}
	return ""
}

func accountIDFromToken(token string) string {
	if token == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}

	auth, ok := claims[authClaimKey].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := auth["chatgpt_account_id"].(string)
	return id
}
