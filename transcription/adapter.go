package transcription

import "context"

// Adapter is a speech-to-text backend. Implementations wrap their own
// failures as ADAPTER_FAILED and must honour ctx cancellation.
type Adapter interface {
	// Name returns the adapter's registered name.
	Name() string
	// IsAvailable checks if the backend is ready to handle requests.
	IsAvailable(ctx context.Context) bool
	// Transcribe runs the model once over the whole file.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Factory creates an adapter from a generic config map.
type Factory func(cfg map[string]any) (Adapter, error)
