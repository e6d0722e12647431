package transcription

import "context"

// Provider is the interface that transcription backends must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
	// Transcribe sends raw audio for transcription and returns the result.
	// Returned text is normalized (trimmed, internal whitespace collapsed).
	Transcribe(ctx context.Context, audio []byte, opts Options) (*Result, error)
}

// Options holds optional hints for a transcription call.
type Options struct {
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Prompt biases the model toward expected vocabulary.
	Prompt string `json:"prompt,omitempty"`
	// ContextHint describes the surrounding application context.
	ContextHint string `json:"context_hint,omitempty"`
	// OnDelta, when set, is invoked with normalized partial text as it
	// becomes available. It may be called zero or more times before the
	// final Result is returned.
	OnDelta func(text string) `json:"-"`
}

// Result holds the outcome of a transcription call. A Result is returned
// by value from a provider and is not mutated after construction.
type Result struct {
	// Text is the normalized transcript.
	Text string `json:"text"`
	// Language is the detected language, if the backend reports one.
	Language string `json:"language,omitempty"`
	// DurationSecs is the audio duration in seconds, if known.
	DurationSecs float64 `json:"duration_secs,omitempty"`
	// Confidence is the backend's confidence score, if reported.
	Confidence float64 `json:"confidence,omitempty"`
}
