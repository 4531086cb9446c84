package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeSessionBusy, "busy", http.StatusConflict)
	if !err.Retryable {
		t.Error("SESSION_BUSY should be retryable")
	}
	err = New(ErrCodeDecodeFailed, "bad file", http.StatusBadGateway)
	if err.Retryable {
		t.Error("DECODE_FAILED should not be retryable")
	}
}

func TestAppError_EmptyRecording_Message(t *testing.T) {
	err := EmptyRecording()
	if err.Code != ErrCodeEmptyRecording {
		t.Errorf("expected EMPTY_RECORDING, got %s", err.Code)
	}
	if err.Message != "empty recording" {
		t.Errorf("expected 'empty recording', got %q", err.Message)
	}
}

func TestAppError_DeviceOpenFailed_Details(t *testing.T) {
	cause := fmt.Errorf("no default output device")
	err := DeviceOpenFailed("output", cause)
	if err.Details["direction"] != "output" {
		t.Errorf("expected direction=output, got %v", err.Details["direction"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NoRecording().WithDetails(map[string]any{"segment": 2})
	err.WithDetail("session", "abc")
	if err.Details["segment"] != 2 || err.Details["session"] != "abc" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := AdapterFailed("whisper", fmt.Errorf("status 500"))
	got := err.Error()
	if !strings.HasPrefix(got, "ADAPTER_FAILED: ") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "(cause: status 500)") {
		t.Errorf("expected cause in message, got %q", got)
	}
	if strings.Contains(err.Message, "\n") {
		t.Error("message must be a single line")
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"device open", DeviceOpenFailed("input", nil), ErrCodeDeviceOpenFailed, http.StatusServiceUnavailable},
		{"device io", DeviceIOFailed("output", nil), ErrCodeDeviceIOFailed, http.StatusServiceUnavailable},
		{"empty recording", EmptyRecording(), ErrCodeEmptyRecording, http.StatusUnprocessableEntity},
		{"decode", DecodeFailed("/tmp/a.mp3", nil), ErrCodeDecodeFailed, http.StatusBadGateway},
		{"adapter", AdapterFailed("whisper", nil), ErrCodeAdapterFailed, http.StatusBadGateway},
		{"cancelled", Cancelled("transcription"), ErrCodeCancelled, http.StatusConflict},
		{"busy", SessionBusy("recording"), ErrCodeSessionBusy, http.StatusConflict},
		{"no recording", NoRecording(), ErrCodeNoRecording, http.StatusConflict},
		{"not found", NotFound("run", "1"), ErrCodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("path", "is required"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("play: %w", SessionBusy("playback"))
	if !HasCode(wrapped, ErrCodeSessionBusy) {
		t.Error("expected wrapped SESSION_BUSY to match")
	}
	if HasCode(wrapped, ErrCodeNoRecording) {
		t.Error("did not expect NO_RECORDING to match")
	}
	if HasCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(nil); got != "" {
		t.Errorf("expected empty message for nil, got %q", got)
	}
	if got := Message(EmptyRecording()); got != "empty recording" {
		t.Errorf("expected AppError message, got %q", got)
	}
	if got := Message(stderrors.New("boom")); got != "boom" {
		t.Errorf("expected plain message, got %q", got)
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := SessionBusy("recording").ToResponse()
	if resp.Error.Code != ErrCodeSessionBusy {
		t.Errorf("expected SESSION_BUSY, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable in response")
	}
	if resp.Error.Details["action"] != "recording" {
		t.Errorf("unexpected details: %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(stderrors.New("x")); ok {
		t.Error("expected plain error not to convert")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", NotFound("segment", "3")))
	if !ok {
		t.Fatal("expected wrapped AppError to convert")
	}
	if appErr.Details["id"] != "3" {
		t.Errorf("expected id=3, got %v", appErr.Details["id"])
	}
	if !IsAppError(appErr) {
		t.Error("expected IsAppError true")
	}
}
