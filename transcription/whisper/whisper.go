package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/kbukum/voicekit/transcription"
)

// ProviderName is the registered name for the Whisper provider.
const ProviderName = "whisper"

const (
	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperModel   = "base"
	defaultWhisperTimeout = 120 * time.Second
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	URL     string        `json:"url" yaml:"url"`
	Model   string        `json:"model" yaml:"model"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements transcription.Provider using a faster-whisper HTTP
// sidecar. It needs no credentials, which keeps the provider contract
// honest against a non-OAuth backend.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Factory returns a transcription.Factory that creates Whisper providers
// from a generic config map.
func Factory() transcription.Factory {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc := Config{}
		if v, ok := cfg["url"].(string); ok {
			wc.URL = v
		}
		if v, ok := cfg["model"].(string); ok {
			wc.Model = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			wc.Timeout = v
		}
		return NewProvider(wc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe sends audio to the Whisper sidecar and returns the
// normalized transcription.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, opts transcription.Options) (*transcription.Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, transcription.ProviderError(fmt.Sprintf("create form file: %v", err))
	}
	if _, err := part.Write(audio); err != nil {
		return nil, transcription.ProviderError(fmt.Sprintf("write audio data: %v", err))
	}

	_ = writer.WriteField("model", p.cfg.Model)
	if opts.Language != "" {
		_ = writer.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("initial_prompt", opts.Prompt)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return nil, transcription.ProviderError(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transcription.NetworkError(fmt.Sprintf("whisper request: %v", err)).WithCause(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		message := transcription.ErrorMessageFromBody(string(raw))
		if message == "" {
			message = transcription.StatusMessage("Whisper", resp.StatusCode)
		}
		return nil, transcription.MapHTTPStatus(resp.StatusCode, message)
	}

	var result whisperResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, transcription.InvalidResponseError(fmt.Sprintf("decode whisper response: %v", err))
	}

	normalized := transcription.NormalizeText(result.Text)
	if opts.OnDelta != nil {
		opts.OnDelta(normalized)
	}

	var duration float64
	if len(result.Segments) > 0 {
		duration = result.Segments[len(result.Segments)-1].End
	}

	return &transcription.Result{
		Text:         normalized,
		Language:     transcription.NormalizeOptional(result.Language),
		DurationSecs: duration,
	}, nil
}

// --- internal Whisper API response types ---

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var _ transcription.Provider = (*Provider)(nil)
