// Package notify publishes pipeline status and completion events to
// observers. Broadcaster serves in-process subscribers; Hub forwards the
// same events to UI clients over websockets. Both implement
// pipeline.Notifier and can be combined with Multi.
package notify
