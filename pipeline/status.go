package pipeline

// Status is the externally observable pipeline state.
type Status string

const (
	// StatusIdle means the pipeline is waiting for a trigger.
	StatusIdle Status = "idle"
	// StatusListening means audio capture is in progress.
	StatusListening Status = "listening"
	// StatusTranscribing means a provider call is in flight.
	StatusTranscribing Status = "transcribing"
	// StatusError means the last run failed; the pipeline is ready for
	// the next trigger.
	StatusError Status = "error"
)

// Stage identifies the pipeline phase at which a failure occurred.
type Stage string

const (
	// StageCapture covers recording start/stop failures.
	StageCapture Stage = "capture"
	// StageTranscription covers provider failures.
	StageTranscription Stage = "transcription"
	// StageInsertion covers text delivery failures.
	StageInsertion Stage = "insertion"
)
