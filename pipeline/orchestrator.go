package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/voicekit/logger"
)

// Orchestrator serializes pipeline runs and invalidates superseded ones.
// Triggers are expected to arrive as asynchronous notifications; each
// should run on its own goroutine (see OnHotkeyPressed/OnHotkeyReleased).
type Orchestrator struct {
	delegate Delegate
	log      *logger.Logger

	// session is the epoch counter. The most recently begun session is
	// the only one whose delegate effects are observable.
	session atomic.Uint64

	// runLock is the exclusive, non-reentrant pipeline execution lock.
	// At most one pipeline body runs at a time; later triggers queue.
	runLock sync.Mutex

	recordingActive atomic.Bool
}

// New creates an Orchestrator over the given delegate.
func New(delegate Delegate) *Orchestrator {
	return &Orchestrator{
		delegate: delegate,
		log:      logger.WithComponent("pipeline"),
	}
}

// beginSession starts a new session epoch, implicitly superseding the
// previous one.
func (o *Orchestrator) beginSession() uint64 {
	return o.session.Add(1)
}

// isCurrent reports whether id is still the active session.
func (o *Orchestrator) isCurrent(id uint64) bool {
	return o.session.Load() == id
}

// OnHotkeyPressed handles a hotkey-start notification without blocking
// the caller.
func (o *Orchestrator) OnHotkeyPressed(ctx context.Context) {
	go o.TriggerStart(ctx)
}

// OnHotkeyReleased handles a hotkey-stop notification without blocking
// the caller.
func (o *Orchestrator) OnHotkeyReleased(ctx context.Context) {
	go o.TriggerStop(ctx)
}

// TriggerStart runs the start half of the pipeline: begin a session,
// serialize on the execution lock, start capture, and report the outcome.
func (o *Orchestrator) TriggerStart(ctx context.Context) {
	id := o.beginSession()

	o.runLock.Lock()
	defer o.runLock.Unlock()

	if !o.isCurrent(id) {
		o.log.Debug("start trigger superseded while queued", logger.Fields(logger.FieldSessionID, id))
		return
	}

	if err := o.delegate.StartRecording(ctx); err != nil {
		o.log.Error("recording start failed", logger.ErrorFields("start_recording", err))
		if o.isCurrent(id) {
			o.delegate.OnRecordingStarted(false)
			o.delegate.EmitError(StageCapture, err.Error())
			o.delegate.SetStatus(StatusError)
		}
		return
	}

	o.recordingActive.Store(true)
	if o.isCurrent(id) {
		o.delegate.OnRecordingStarted(true)
		o.delegate.SetStatus(StatusListening)
	}
}

// TriggerStop runs the stop half of the pipeline: begin a session,
// serialize on the execution lock, then capture-stop, transcribe, and
// insert in order. Every outward effect is gated on the session still
// being the active one.
func (o *Orchestrator) TriggerStop(ctx context.Context) {
	id := o.beginSession()

	o.runLock.Lock()
	defer o.runLock.Unlock()

	if !o.isCurrent(id) {
		o.log.Debug("stop trigger superseded while queued", logger.Fields(logger.FieldSessionID, id))
		return
	}

	if !o.recordingActive.Load() {
		// Nothing to stop. Acknowledge the failure and exit without any
		// other side effects.
		o.delegate.OnRecordingStopped(false)
		return
	}

	audio, err := o.delegate.StopRecording(ctx)
	o.recordingActive.Store(false)
	if err != nil {
		o.log.Error("recording stop failed", logger.ErrorFields("stop_recording", err))
		if o.isCurrent(id) {
			o.delegate.OnRecordingStopped(false)
			o.delegate.EmitError(StageCapture, err.Error())
			o.delegate.SetStatus(StatusError)
		}
		return
	}

	if o.isCurrent(id) {
		o.delegate.OnRecordingStopped(true)
		o.delegate.SetStatus(StatusTranscribing)
	}

	text, err := o.delegate.Transcribe(ctx, audio)
	if err != nil {
		if o.isCurrent(id) {
			o.delegate.EmitError(StageTranscription, err.Error())
			o.delegate.SetStatus(StatusError)
		}
		return
	}

	if !o.isCurrent(id) {
		// Superseded mid-run: the transcript is stale and must never be
		// inserted or surfaced.
		return
	}

	if err := o.delegate.InsertText(ctx, text); err != nil {
		if o.isCurrent(id) {
			o.delegate.EmitError(StageInsertion, err.Error())
			o.delegate.SetStatus(StatusError)
		}
		return
	}

	if o.isCurrent(id) {
		o.delegate.EmitTranscript(text)
		o.delegate.SetStatus(StatusIdle)
	}
}

// Transcribe runs a direct transcription request outside the session
// epoch, e.g. manual invocation from a UI. Failures are additionally fed
// into the stage-error path asynchronously so error reporting stays
// uniform with triggered runs.
func (o *Orchestrator) Transcribe(ctx context.Context, audio []byte) (string, error) {
	o.delegate.SetStatus(StatusTranscribing)

	text, err := o.delegate.Transcribe(ctx, audio)
	if err != nil {
		o.delegate.SetStatus(StatusError)
		go o.delegate.EmitError(StageTranscription, err.Error())
		return "", err
	}

	o.delegate.SetStatus(StatusIdle)
	return text, nil
}
