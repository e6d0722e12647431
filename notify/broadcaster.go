package notify

import (
	"sync"

	"github.com/kbukum/voicekit/pipeline"
)

// Broadcaster fans pipeline events out to in-process subscribers. Slow
// subscribers drop events rather than blocking the pipeline.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	status pipeline.Status
}

// NewBroadcaster creates an empty Broadcaster with status Idle.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]chan Event),
		status: pipeline.StatusIdle,
	}
}

// Subscribe registers an event channel. The returned cancel function
// removes the subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Status returns the most recently published status.
func (b *Broadcaster) Status() pipeline.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Publish delivers an event to every subscriber.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if payload, ok := event.Payload.(StatusPayload); ok {
		b.status = payload.Status
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// NotifyStatus implements pipeline.Notifier.
func (b *Broadcaster) NotifyStatus(status pipeline.Status) {
	b.Publish(StatusEvent(status))
}

// NotifyTranscript implements pipeline.Notifier.
func (b *Broadcaster) NotifyTranscript(text string) {
	b.Publish(TranscriptEvent(text))
}

// NotifyError implements pipeline.Notifier.
func (b *Broadcaster) NotifyError(stage pipeline.Stage, message string) {
	b.Publish(ErrorEvent(stage, message))
}

var _ pipeline.Notifier = (*Broadcaster)(nil)
