package notify

import "github.com/kbukum/voicekit/pipeline"

// Event is the wire shape for a pipeline notification.
type Event struct {
	Type    string `json:"type"` // "status", "transcript", "error"
	Payload any    `json:"payload"`
}

// StatusPayload carries a status change.
type StatusPayload struct {
	Status pipeline.Status `json:"status"`
}

// TranscriptPayload carries a finished transcript.
type TranscriptPayload struct {
	Text string `json:"text"`
}

// ErrorPayload carries a stage-tagged failure.
type ErrorPayload struct {
	Stage   pipeline.Stage `json:"stage"`
	Message string         `json:"message"`
}

// StatusEvent builds a status Event.
func StatusEvent(status pipeline.Status) Event {
	return Event{Type: "status", Payload: StatusPayload{Status: status}}
}

// TranscriptEvent builds a transcript Event.
func TranscriptEvent(text string) Event {
	return Event{Type: "transcript", Payload: TranscriptPayload{Text: text}}
}

// ErrorEvent builds an error Event.
func ErrorEvent(stage pipeline.Stage, message string) Event {
	return Event{Type: "error", Payload: ErrorPayload{Stage: stage, Message: message}}
}

// Multi fans notifications out to several notifiers.
func Multi(notifiers ...pipeline.Notifier) pipeline.Notifier {
	return multiNotifier(notifiers)
}

type multiNotifier []pipeline.Notifier

func (m multiNotifier) NotifyStatus(status pipeline.Status) {
	for _, n := range m {
		n.NotifyStatus(status)
	}
}

func (m multiNotifier) NotifyTranscript(text string) {
	for _, n := range m {
		n.NotifyTranscript(text)
	}
}

func (m multiNotifier) NotifyError(stage pipeline.Stage, message string) {
	for _, n := range m {
		n.NotifyError(stage, message)
	}
}
