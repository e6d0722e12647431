package chatgpt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/voicekit/transcription"
)

// maxBridgeResponseBodyLen caps how much of the backend response body the
// injected script ships back through the callback URL.
const maxBridgeResponseBodyLen = 2000

// bridgeRequest is the payload handed to the injected script. CallbackURL
// is finalized only after the loopback listener is bound, so the script
// can never fire before the listener exists.
type bridgeRequest struct {
	RequestID   string `json:"requestId"`
	Endpoint    string `json:"endpoint"`
	CallbackURL string `json:"callbackUrl"`
	AudioBase64 string `json:"audioBase64"`
	AccessToken string `json:"accessToken"`
	AccountID   string `json:"accountId"`
}

// bridgeCallback is the outcome reported by the injected script: either an
// HTTP result (ok/status/body) or a transport-level error string.
type bridgeCallback struct {
	RequestID string `json:"requestId"`
	OK        bool   `json:"ok"`
	Status    int    `json:"status,omitempty"`
	Body      string `json:"body,omitempty"`
	Error     string `json:"error,omitempty"`
}

const bridgeScriptTemplate = `(async () => {
  const payload = __VOICEKIT_BRIDGE_PAYLOAD__;
  const reportResult = (result) => {
    const serialized = encodeURIComponent(JSON.stringify(result));
    window.location.assign(` + "`${payload.callbackUrl}&payload=${serialized}`" + `);
  };

  try {
    const binary = atob(payload.audioBase64);
    const bytes = new Uint8Array(binary.length);
    for (let i = 0; i < binary.length; i += 1) {
      bytes[i] = binary.charCodeAt(i);
    }

    const form = new FormData();
    form.append("file", new Blob([bytes], { type: "audio/wav" }), "audio.wav");

    const response = await fetch(payload.endpoint, {
      method: "POST",
      credentials: "include",
      headers: {
        "Authorization": ` + "`Bearer ${payload.accessToken}`" + `,
        "ChatGPT-Account-Id": payload.accountId,
        "X-Codex-Base64": "1"
      },
      body: form
    });

    const text = await response.text();
    reportResult({
      requestId: payload.requestId,
      ok: response.ok,
      status: response.status,
      body: text.slice(0, __VOICEKIT_BRIDGE_BODY_LIMIT__)
    });
  } catch (error) {
    reportResult({
      requestId: payload.requestId,
      ok: false,
      error: error instanceof Error ? error.message : String(error)
    });
  }
})();`

// buildBridgeScript renders the injected script for one bridged call.
func buildBridgeScript(req *bridgeRequest) (string, error) {
	payloadJSON, err := json.Marshal(req)
	if err != nil {
		return "", transcription.ProviderError(
			fmt.Sprintf("Failed to serialize bridge transcription payload: %v", err))
	}

	return strings.NewReplacer(
		"__VOICEKIT_BRIDGE_PAYLOAD__", string(payloadJSON),
		"__VOICEKIT_BRIDGE_BODY_LIMIT__", strconv.Itoa(maxBridgeResponseBodyLen),
	).Replace(bridgeScriptTemplate), nil
}
