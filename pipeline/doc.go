// Package pipeline drives one recording-transcription-insertion cycle per
// hotkey trigger, with strict serialization and staleness rejection.
//
// Every trigger begins a new session: a monotonically increasing epoch.
// Exactly one session is active at a time; older sessions are implicitly
// superseded, never cancelled. Every externally visible effect first
// checks that its session is still the active one, so a run that was
// queued behind the execution lock cannot surface stale status, stale
// text, or a stale error after a newer run has begun. This replaces hard
// task cancellation, which cannot be forced across arbitrary I/O.
//
// All side effects go through the Delegate capability interface, which
// decouples the orchestrator from concrete OS, UI, and network
// implementations.
package pipeline
