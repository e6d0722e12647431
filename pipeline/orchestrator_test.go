package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingDelegate captures every delegate call in order.
type recordingDelegate struct {
	mu     sync.Mutex
	events []string

	startErr      error
	stopErr       error
	transcribeErr error
	insertErr     error

	audio []byte
	text  string

	// blockTranscribe, when non-nil, is closed to release a stalled
	// Transcribe call.
	blockTranscribe chan struct{}
	// onTranscribe runs inside Transcribe before it returns.
	onTranscribe func()
}

func (d *recordingDelegate) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDelegate) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	copy(out, d.events)
	return out
}

func (d *recordingDelegate) SetStatus(status Status)   { d.record("status:" + string(status)) }
func (d *recordingDelegate) EmitTranscript(text string) { d.record("transcript:" + text) }
func (d *recordingDelegate) EmitError(stage Stage, message string) {
	d.record("error:" + string(stage))
}

func (d *recordingDelegate) StartRecording(ctx context.Context) error {
	d.record("start_recording")
	return d.startErr
}

func (d *recordingDelegate) StopRecording(ctx context.Context) ([]byte, error) {
	d.record("stop_recording")
	if d.stopErr != nil {
		return nil, d.stopErr
	}
	return d.audio, nil
}

func (d *recordingDelegate) Transcribe(ctx context.Context, audio []byte) (string, error) {
	d.record("transcribe")
	if d.onTranscribe != nil {
		d.onTranscribe()
	}
	if d.blockTranscribe != nil {
		<-d.blockTranscribe
	}
	if d.transcribeErr != nil {
		return "", d.transcribeErr
	}
	return d.text, nil
}

func (d *recordingDelegate) InsertText(ctx context.Context, text string) error {
	d.record("insert:" + text)
	return d.insertErr
}

func (d *recordingDelegate) OnRecordingStarted(ok bool) {
	if ok {
		d.record("started:ok")
	} else {
		d.record("started:fail")
	}
}

func (d *recordingDelegate) OnRecordingStopped(ok bool) {
	if ok {
		d.record("stopped:ok")
	} else {
		d.record("stopped:fail")
	}
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTriggerStart_Success(t *testing.T) {
	d := &recordingDelegate{}
	o := New(d)

	o.TriggerStart(context.Background())

	want := []string{"start_recording", "started:ok", "status:listening"}
	if got := d.recorded(); !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTriggerStart_CaptureFailure(t *testing.T) {
	d := &recordingDelegate{startErr: errors.New("no microphone")}
	o := New(d)

	o.TriggerStart(context.Background())

	want := []string{"start_recording", "started:fail", "error:capture", "status:error"}
	if got := d.recorded(); !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTriggerStop_FullRun(t *testing.T) {
	d := &recordingDelegate{audio: []byte("pcm"), text: "hello world"}
	o := New(d)

	o.TriggerStart(context.Background())
	o.TriggerStop(context.Background())

	want := []string{
		"start_recording", "started:ok", "status:listening",
		"stop_recording", "stopped:ok", "status:transcribing",
		"transcribe", "insert:hello world", "transcript:hello world", "status:idle",
	}
	if got := d.recorded(); !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTriggerStop_WithoutActiveRecording(t *testing.T) {
	d := &recordingDelegate{}
	o := New(d)

	o.TriggerStop(context.Background())

	want := []string{"stopped:fail"}
	if got := d.recorded(); !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTriggerStop_TranscriptionFailure(t *testing.T) {
	d := &recordingDelegate{audio: []byte("pcm"), transcribeErr: errors.New("backend down")}
	o := New(d)

	o.TriggerStart(context.Background())
	o.TriggerStop(context.Background())

	got := d.recorded()
	want := []string{
		"start_recording", "started:ok", "status:listening",
		"stop_recording", "stopped:ok", "status:transcribing",
		"transcribe", "error:transcription", "status:error",
	}
	if !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTriggerStop_InsertionFailure(t *testing.T) {
	d := &recordingDelegate{audio: []byte("pcm"), text: "hi", insertErr: errors.New("no focus")}
	o := New(d)

	o.TriggerStart(context.Background())
	o.TriggerStop(context.Background())

	got := d.recorded()
	if got[len(got)-2] != "error:insertion" || got[len(got)-1] != "status:error" {
		t.Errorf("expected insertion error tail, got %v", got)
	}
	for _, event := range got {
		if event == "transcript:hi" || event == "status:idle" {
			t.Errorf("insertion failure must not emit a transcript: %v", got)
		}
	}
}

func TestTriggerStop_SupersededTextNeverInserted(t *testing.T) {
	d := &recordingDelegate{audio: []byte("pcm"), text: "stale words"}
	o := New(d)
	// Superseding the session while transcription is in flight.
	d.onTranscribe = func() { o.beginSession() }

	o.TriggerStart(context.Background())
	o.TriggerStop(context.Background())

	for _, event := range d.recorded() {
		if event == "insert:stale words" {
			t.Fatal("superseded transcript was inserted")
		}
		if event == "transcript:stale words" {
			t.Fatal("superseded transcript was emitted")
		}
	}
}

func TestTriggerStop_QueuedTriggerSupersedesStalled(t *testing.T) {
	release := make(chan struct{})
	d := &recordingDelegate{audio: []byte("pcm"), text: "first", blockTranscribe: release}
	o := New(d)

	o.TriggerStart(context.Background())

	done := make(chan struct{})
	go func() {
		o.TriggerStop(context.Background())
		close(done)
	}()

	// Wait until the first stop is inside Transcribe, then queue a second
	// trigger and release the first.
	deadline := time.After(2 * time.Second)
	for {
		found := false
		for _, event := range d.recorded() {
			if event == "transcribe" {
				found = true
			}
		}
		if found {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first stop never reached transcription")
		case <-time.After(time.Millisecond):
		}
	}

	second := make(chan struct{})
	go func() {
		o.TriggerStart(context.Background())
		close(second)
	}()
	// Give the second trigger time to queue on the run lock.
	time.Sleep(50 * time.Millisecond)
	close(release)
	<-done
	<-second

	for _, event := range d.recorded() {
		if event == "insert:first" || event == "transcript:first" {
			t.Fatalf("superseded first run leaked effects: %v", d.recorded())
		}
	}
}

func TestTranscribe_DirectSuccess(t *testing.T) {
	d := &recordingDelegate{text: "direct"}
	o := New(d)

	text, err := o.Transcribe(context.Background(), []byte("pcm"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "direct" {
		t.Errorf("expected 'direct', got %q", text)
	}

	want := []string{"status:transcribing", "transcribe", "status:idle"}
	if got := d.recorded(); !equalEvents(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTranscribe_DirectFailure(t *testing.T) {
	d := &recordingDelegate{transcribeErr: errors.New("backend down")}
	o := New(d)

	_, err := o.Transcribe(context.Background(), []byte("pcm"))
	if err == nil {
		t.Fatal("expected error")
	}

	// The stage error is emitted asynchronously; wait for it.
	deadline := time.After(2 * time.Second)
	for {
		got := d.recorded()
		if len(got) >= 1 && got[len(got)-1] == "error:transcription" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("async stage error never arrived: %v", got)
		case <-time.After(time.Millisecond):
		}
	}

	got := d.recorded()
	if got[0] != "status:transcribing" || got[2] != "status:error" {
		t.Errorf("unexpected event order: %v", got)
	}
}
