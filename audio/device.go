package audio

import "context"

// Direction names used in errors, logs and metrics.
const (
	DirectionOutput = "output"
	DirectionInput  = "input"
)

// OutputDevice opens playback streams. A stream is opened fresh for every
// session and closed when the session ends.
type OutputDevice interface {
	OpenOutput(ctx context.Context, rate, chunkSize int) (OutputStream, error)
}

// OutputStream accepts mono float32 frames of exactly chunkSize samples.
type OutputStream interface {
	Write(frame []float32) error
	Close() error
}

// InputDevice opens capture streams, one per recording session.
type InputDevice interface {
	OpenInput(ctx context.Context, rate, chunkSize int) (InputStream, error)
}

// InputStream fills frame with the next chunkSize captured samples.
type InputStream interface {
	Read(frame []float32) error
	Close() error
}
