// Package chatgpt implements transcription against the ChatGPT backend in
// two variants that share auth, normalization, and error mapping.
//
// Provider performs the multipart upload directly over HTTP and fits
// contexts that have a plain authenticated network path.
//
// BridgeProvider drives a hidden, already-authenticated browser view: it
// injects a script that performs the upload from inside the view's
// credentialed context (cookies, fingerprint, challenge state) and
// recovers the outcome through an ephemeral loopback callback listener
// bound for exactly one call. Request/response pairs are correlated by a
// per-call id; callbacks that do not match the outstanding id are
// acknowledged and discarded.
package chatgpt
