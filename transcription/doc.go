// Package transcription defines the provider contract and common types
// for turning captured audio into text.
//
// All backends implement Provider uniformly: given raw audio bytes and
// Options, they return a normalized Result or fail with a typed *Error
// from the closed taxonomy (Authentication, RateLimited, Network,
// InvalidResponse, Provider). Providers never silently discard errors.
//
// # Backends
//
//   - transcription/chatgpt: ChatGPT backend, as a direct HTTP variant and
//     a browser-bridge variant for authenticated webview contexts
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.Register(whisper.NewProvider(cfg))
//	p, err := reg.Select(ctx, "whisper")
//	result, err := p.Transcribe(ctx, audio, transcription.Options{Language: "en"})
package transcription
