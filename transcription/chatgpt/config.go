package chatgpt

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEndpoint       = "https://chatgpt.com/backend-api/transcribe"
	defaultRequestTimeout = 180 * time.Second

	accountHeader     = "ChatGPT-Account-Id"
	base64Header      = "X-Codex-Base64"
	base64HeaderValue = "1"
)

// Config holds configuration shared by both ChatGPT provider variants.
type Config struct {
	// Endpoint is the transcription endpoint URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// RequestTimeout bounds a single transcription call.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// DefaultConfig returns the default ChatGPT provider configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:       defaultEndpoint,
		RequestTimeout: defaultRequestTimeout,
	}
}

// ConfigFromEnv builds a Config from the environment, falling back to
// defaults for unset or blank variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if endpoint := strings.TrimSpace(os.Getenv("CHATGPT_TRANSCRIPTION_ENDPOINT")); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if raw := strings.TrimSpace(os.Getenv("CHATGPT_TRANSCRIPTION_TIMEOUT_SECS")); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
}
