package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{
			name:        "lookup failure retries",
			err:         NewCorporationLookupFailedError("123456789", fmt.Errorf("connection refused")),
			wantCode:    "CORPORATION_LOOKUP_FAILED",
			wantRetries: 3,
		},
		{
			name:        "lookup timeout shares the boundary code",
			err:         NewCorporationLookupTimeoutError("123456789", fmt.Errorf("deadline exceeded")),
			wantCode:    "CORPORATION_LOOKUP_FAILED",
			wantRetries: 2,
		},
		{
			name:        "client side save failure is terminal",
			err:         NewProfileSaveFailedError("Invalid phone number", 400, nil),
			wantCode:    "PROFILE_SAVE_FAILED",
			wantRetries: 0,
		},
		{
			name:        "server side save failure retries",
			err:         NewProfileSaveFailedError("Internal Server Error", 503, nil),
			wantCode:    "PROFILE_SAVE_FAILED",
			wantRetries: 3,
		},
		{
			name:        "unknown code falls back to itself",
			err:         &StandardError{Code: "SOMETHING_ELSE", Message: "x"},
			wantCode:    "SOMETHING_ELSE",
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesFieldErrors(t *testing.T) {
	fieldErrors := map[string]string{"phone": "Phone number is not valid"}
	bpmnErr := ConvertToBPMNError(NewUserStepInvalidError(fieldErrors))

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "USER_STEP_INVALID", vars["errorCode"])
	assert.Equal(t, fieldErrors, vars["fieldErrors"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, bpmnErr.Details, "phone: Phone number is not valid")
}

func TestIsRetryable(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("check: %w", NewCorporationLookupFailedError("123456789", cause))

	assert.True(t, IsRetryable(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeCorporationLookupFailed))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.False(t, IsRetryable(NewUserStepInvalidError(nil)))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "REGISTRY", GetErrorCategory(ErrCodeCorporationLookupFailed))
	assert.Equal(t, "BACKEND", GetErrorCategory(ErrCodeProfileSaveFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeUserStepInvalid))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInputParsingFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeTimeout))
	assert.Equal(t, "OTHER", GetErrorCategory("MYSTERY"))
}

func TestErrorHandler_Normalize(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{})

	stdErr := NewValidationFailedError("bad")
	assert.Same(t, stdErr, h.Normalize(fmt.Errorf("wrapped: %w", stdErr)))

	plain := h.Normalize(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.False(t, plain.Retryable)
	assert.Equal(t, "boom", plain.Details)
}

func TestErrorHandler_ShouldRetry(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{})

	assert.True(t, h.ShouldRetry(NewCorporationLookupFailedError("1", stderrors.New("x")), 3))
	assert.False(t, h.ShouldRetry(NewCorporationLookupFailedError("1", stderrors.New("x")), 0))
	assert.False(t, h.ShouldRetry(NewUserStepInvalidError(map[string]string{"a": "b"}), 3))
	assert.False(t, h.ShouldRetry(NewProfileSaveFailedError("nope", 422, nil), 3))
}
