package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable, single-line error message.
	Message string `json:"message"`
	// Retryable indicates whether a fresh attempt by the caller may succeed.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Device ---

// DeviceOpenFailed reports that the input or output device could not be opened.
func DeviceOpenFailed(direction string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeviceOpenFailed, Message: fmt.Sprintf("Could not open the %s audio device.", direction),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"direction": direction}, Cause: cause,
	}
}

// DeviceIOFailed reports a failed chunk transfer on an open device.
func DeviceIOFailed(direction string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeviceIOFailed, Message: fmt.Sprintf("The %s audio device stopped responding.", direction),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"direction": direction}, Cause: cause,
	}
}

// EmptyRecording reports a recording that captured no samples.
func EmptyRecording() *AppError {
	return &AppError{
		Code: ErrCodeEmptyRecording, Message: "empty recording",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: true,
	}
}

// --- Pipeline ---

// DecodeFailed reports that an audio file could not be decoded.
func DecodeFailed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("Could not decode audio file %s.", path),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// AdapterFailed reports a failure inside a transcription backend.
func AdapterFailed(adapter string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAdapterFailed, Message: fmt.Sprintf("The %s transcription backend failed.", adapter),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"adapter": adapter}, Cause: cause,
	}
}

// Cancelled reports an operation stopped by its caller.
func Cancelled(operation string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("The %s was cancelled.", operation),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"operation": operation},
	}
}

// --- Session ---

// SessionBusy rejects an action while another one is in flight on the same session.
func SessionBusy(action string) *AppError {
	return &AppError{
		Code: ErrCodeSessionBusy, Message: fmt.Sprintf("busy: %s is in progress", action),
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"action": action},
	}
}

// NoRecording rejects playback of a learner recording that does not exist yet.
func NoRecording() *AppError {
	return &AppError{
		Code: ErrCodeNoRecording, Message: "nothing recorded yet",
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// --- Request ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
