package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/transcription"
)

// Delegate is the capability set through which the orchestrator produces
// every externally observable side effect.
type Delegate interface {
	// SetStatus publishes the pipeline status to observers.
	SetStatus(status Status)
	// EmitTranscript publishes a finished transcript.
	EmitTranscript(text string)
	// EmitError publishes a stage-tagged failure.
	EmitError(stage Stage, message string)
	// StartRecording starts audio capture.
	StartRecording(ctx context.Context) error
	// StopRecording stops capture and returns the recorded audio bytes.
	StopRecording(ctx context.Context) ([]byte, error)
	// Transcribe turns audio bytes into normalized text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
	// InsertText delivers text at the current cursor position.
	InsertText(ctx context.Context, text string) error
	// OnRecordingStarted acknowledges a start trigger's outcome.
	OnRecordingStarted(ok bool)
	// OnRecordingStopped acknowledges a stop trigger's outcome.
	OnRecordingStopped(ok bool)
}

// Recorder is the audio capture collaborator.
type Recorder interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) ([]byte, error)
}

// Inserter is the text delivery collaborator.
type Inserter interface {
	InsertText(ctx context.Context, text string) error
}

// Notifier publishes status and events to observers (UI layer).
type Notifier interface {
	NotifyStatus(status Status)
	NotifyTranscript(text string)
	NotifyError(stage Stage, message string)
}

// CompletedTranscription describes one finished transcription event for
// persistence collaborators.
type CompletedTranscription struct {
	Text         string
	Words        int
	DurationSecs float64
	Language     string
	Provider     string
}

// Sink records completed transcription events (history, usage stats).
type Sink interface {
	RecordTranscription(event CompletedTranscription) error
}

// Collaborators is the production Delegate: it wires the orchestrator to
// concrete capture, insertion, provider, notification, and persistence
// collaborators.
type Collaborators struct {
	Recorder Recorder
	Inserter Inserter
	Provider transcription.Provider
	// Options is passed to every provider call.
	Options transcription.Options
	Notifier Notifier
	Sinks    []Sink
	Log      *logger.Logger

	mu         sync.Mutex
	lastResult *transcription.Result
}

func (c *Collaborators) logger() *logger.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logger.WithComponent("pipeline")
}

// SetStatus publishes the pipeline status.
func (c *Collaborators) SetStatus(status Status) {
	if c.Notifier != nil {
		c.Notifier.NotifyStatus(status)
	}
}

// EmitTranscript publishes the transcript and records the completed event
// with every persistence sink. Sink failures are logged, never fatal.
func (c *Collaborators) EmitTranscript(text string) {
	if c.Notifier != nil {
		c.Notifier.NotifyTranscript(text)
	}

	event := CompletedTranscription{
		Text:     text,
		Words:    len(strings.Fields(text)),
		Provider: c.Provider.Name(),
	}
	c.mu.Lock()
	if c.lastResult != nil {
		event.DurationSecs = c.lastResult.DurationSecs
		event.Language = c.lastResult.Language
	}
	c.mu.Unlock()

	for _, sink := range c.Sinks {
		if err := sink.RecordTranscription(event); err != nil {
			c.logger().Warn("transcription sink failed", logger.ErrorFields("record_transcription", err))
		}
	}
}

// EmitError publishes a stage-tagged failure.
func (c *Collaborators) EmitError(stage Stage, message string) {
	if c.Notifier != nil {
		c.Notifier.NotifyError(stage, message)
	}
}

// StartRecording starts audio capture.
func (c *Collaborators) StartRecording(ctx context.Context) error {
	return c.Recorder.StartRecording(ctx)
}

// StopRecording stops capture and returns the audio bytes.
func (c *Collaborators) StopRecording(ctx context.Context) ([]byte, error) {
	return c.Recorder.StopRecording(ctx)
}

// Transcribe calls the configured provider and retains the result's
// metadata for the completed-transcription event.
func (c *Collaborators) Transcribe(ctx context.Context, audio []byte) (string, error) {
	result, err := c.Provider.Transcribe(ctx, audio, c.Options)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.lastResult = result
	c.mu.Unlock()

	return result.Text, nil
}

// InsertText delivers text through the insertion collaborator.
func (c *Collaborators) InsertText(ctx context.Context, text string) error {
	return c.Inserter.InsertText(ctx, text)
}

// OnRecordingStarted acknowledges a start trigger's outcome.
func (c *Collaborators) OnRecordingStarted(ok bool) {
	c.logger().Debug("recording started", logger.Fields("ok", ok))
}

// OnRecordingStopped acknowledges a stop trigger's outcome.
func (c *Collaborators) OnRecordingStopped(ok bool) {
	c.logger().Debug("recording stopped", logger.Fields("ok", ok))
}

var _ Delegate = (*Collaborators)(nil)
