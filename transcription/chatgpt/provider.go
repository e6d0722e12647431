package chatgpt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/oauth"
	"github.com/kbukum/voicekit/transcription"
)

// ProviderName is the registered name for the direct ChatGPT provider.
const ProviderName = "chatgpt"

// Provider implements transcription.Provider with a direct authenticated
// HTTP call to the ChatGPT transcription endpoint.
type Provider struct {
	cfg    Config
	auth   *oauth.Manager
	client *http.Client
	log    *logger.Logger
}

// NewProvider creates a direct ChatGPT transcription provider.
func NewProvider(cfg Config, auth *oauth.Manager) *Provider {
	cfg.applyDefaults()
	return &Provider{
		cfg:    cfg,
		auth:   auth,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		log:    logger.WithComponent("chatgpt"),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether a ChatGPT login is present.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.auth.LoggedIn()
}

// Transcribe uploads the audio as base64-encoded multipart form data and
// returns the normalized transcript.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, opts Options) (*transcription.Result, error) {
	auth, err := p.auth.AuthContext(ctx)
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildAudioForm(audio)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, body)
	if err != nil {
		return nil, transcription.ProviderError(fmt.Sprintf("Unable to build ChatGPT request: %v", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set(accountHeader, auth.AccountID)
	req.Header.Set(base64Header, base64HeaderValue)

	p.log.Debug("starting transcription request", logger.Fields("endpoint", p.cfg.Endpoint))
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapStatusError(resp.StatusCode, string(raw))
	}

	return decodeTranscript(raw, opts)
}

// Options aliases the shared transcription options for call sites that
// only import this package.
type Options = transcription.Options

type transcriptResponse struct {
	Text string `json:"text"`
}

// decodeTranscript parses the backend payload, normalizes the text, and
// feeds the delta callback before returning the final result.
func decodeTranscript(raw []byte, opts Options) (*transcription.Result, error) {
	var payload transcriptResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, transcription.InvalidResponseError(
			fmt.Sprintf("Unable to parse ChatGPT transcription response: %v", err))
	}

	normalized := transcription.NormalizeText(payload.Text)
	if opts.OnDelta != nil {
		opts.OnDelta(normalized)
	}

	return &transcription.Result{Text: normalized}, nil
}

// buildAudioForm packages base64-encoded audio as the single multipart
// `file` part the backend expects.
func buildAudioForm(audio []byte) (io.Reader, string, error) {
	encoded := base64.StdEncoding.EncodeToString(audio)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "application/octet-stream")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", transcription.ProviderError(fmt.Sprintf("Unable to prepare audio upload: %v", err))
	}
	if _, err := part.Write([]byte(encoded)); err != nil {
		return nil, "", transcription.ProviderError(fmt.Sprintf("Unable to prepare audio upload: %v", err))
	}
	writer.Close()

	return &buf, writer.FormDataContentType(), nil
}

// mapStatusError maps a failed HTTP response to the error taxonomy using
// the message extracted from its body.
func mapStatusError(status int, body string) *transcription.Error {
	message := transcription.ErrorMessageFromBody(body)
	if message == "" {
		message = transcription.StatusMessage("ChatGPT", status)
	}
	return transcription.MapHTTPStatus(status, message)
}

// mapTransportError maps client-side transport failures: timeouts and
// connection-level failures are Network, everything else is Provider.
func mapTransportError(err error) *transcription.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return transcription.NetworkError(err.Error()).WithCause(err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return transcription.NetworkError(err.Error()).WithCause(err)
	}
	return transcription.ProviderError(err.Error()).WithCause(err)
}

var _ transcription.Provider = (*Provider)(nil)
