package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Device errors
const (
	// ErrCodeDeviceOpenFailed indicates the audio device could not be opened.
	ErrCodeDeviceOpenFailed ErrorCode = "DEVICE_OPEN_FAILED"
	// ErrCodeDeviceIOFailed indicates a chunk write or read on an open device failed.
	ErrCodeDeviceIOFailed ErrorCode = "DEVICE_IO_FAILED"
	// ErrCodeEmptyRecording indicates a recording ended without a single captured sample.
	ErrCodeEmptyRecording ErrorCode = "EMPTY_RECORDING"
)

// Pipeline errors
const (
	// ErrCodeDecodeFailed indicates the source file could not be decoded to samples.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodeAdapterFailed indicates the transcription backend failed.
	ErrCodeAdapterFailed ErrorCode = "ADAPTER_FAILED"
	// ErrCodeCancelled indicates the operation was cancelled by the caller.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Session rejections
const (
	// ErrCodeSessionBusy indicates another playback or recording is already in flight.
	ErrCodeSessionBusy ErrorCode = "SESSION_BUSY"
	// ErrCodeNoRecording indicates there is no learner recording to play yet.
	ErrCodeNoRecording ErrorCode = "NO_RECORDING"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes marks failures where a fresh, caller-initiated attempt may
// succeed. Nothing in this module retries on its own.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeDeviceOpenFailed: true,
	ErrCodeDeviceIOFailed:   true,
	ErrCodeEmptyRecording:   true,
	ErrCodeAdapterFailed:    true,
	ErrCodeSessionBusy:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
