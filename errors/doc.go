// Package errors provides the structured error type shared by the audio,
// transcription and segment packages. Every failure carries a machine-readable
// code, a one-line human-readable message and the HTTP status the control API
// answers with.
package errors
