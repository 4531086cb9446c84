// Package transcription defines the speech-to-text adapter boundary and
// the types it exchanges.
//
// An Adapter runs a Whisper-family model once over a whole file and returns
// the detected language and an ordered list of timed spans. Backends are
// registered by name and wrapped with logging, tracing and metrics
// middleware:
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(whisper.AdapterName, whisper.Factory())
//	a, err := reg.Create("whisper", cfg, transcription.WithLogging(log), transcription.WithTracing())
//
// WithConcurrencyLimit bounds how many calls reach a backend at once; local
// models hold a full copy of their weights per call.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - transcription/whispercli: helper program that prints JSON
package transcription
