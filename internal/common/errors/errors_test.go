package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Constructor Tests
// ==========================

func TestNewAPIError_DefaultMessage(t *testing.T) {
	err := NewAPIError(http.MethodGet, "/invoices/my", 500, "   ")
	assert.Equal(t, DefaultAPIMessage, err.Error())
	assert.Equal(t, 500, err.StatusCode)
	assert.False(t, err.IsConflict())

	conflict := NewAPIError(http.MethodPost, "/offers/generate", 409, "Offer already generated")
	assert.True(t, conflict.IsConflict())
	assert.Equal(t, "Offer already generated", conflict.Error())
}

func TestStandardError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("GET /businesses/me: %w", NewSessionExpiredError("refresh rejected"))

	assert.True(t, stderrors.Is(err, ErrSessionExpired))
	assert.False(t, stderrors.Is(err, &StandardError{Code: ErrCodeNetworkError}))
	assert.Equal(t, ErrCodeSessionExpired, Code(err))
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetworkError("/auth/otp/send", cause)

	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Details, "/auth/otp/send")
}

func TestNewValidationError_Metadata(t *testing.T) {
	err := NewValidationError("aadhaar", "Aadhaar must be exactly 12 digits")
	require.NotNil(t, err.Metadata)
	assert.Equal(t, "aadhaar", err.Metadata["field"])
	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.False(t, err.Retryable)
}

// ==========================
// Utility Tests
// ==========================

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeStatementExportFailed, 3},
		{ErrCodeNetworkError, 1},
		{ErrCodeSessionStoreFailed, 1},
		{ErrCodeValidationFailed, 0},
		{ErrCodeSessionExpired, 0},
		{ErrCodeMultipleActiveOffers, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetRetryCount(tt.code))
			assert.Equal(t, tt.expected > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeSessionExpired, "AUTH"},
		{ErrCodeSessionStoreFailed, "AUTH"},
		{ErrCodeNetworkError, "NETWORK"},
		{ErrCodeAPIError, "NETWORK"},
		{ErrCodeOfferConflict, "BUSINESS"},
		{ErrCodeTermsNotAccepted, "BUSINESS"},
		{ErrCodeNotificationSendFailed, "NOTIFICATION"},
		{ErrCodeStatementExportFailed, "DATABASE"},
		{ErrCodeValidationFailed, "VALIDATION"},
		{ErrCodeInvalidTransition, "VALIDATION"},
		{ErrorCode("SOMETHING_ELSE"), "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "number not registered",
		UserMessage(fmt.Errorf("wrapped: %w", NewAPIError("POST", "/auth/otp/send", 404, "number not registered"))))
	assert.Equal(t, "Please accept the terms to continue", UserMessage(NewTermsNotAcceptedError()))
	assert.Equal(t, "plain", UserMessage(stderrors.New("plain")))
	assert.Equal(t, 404, StatusCode(NewAPIError("GET", "/loans/1", 404, "")))
	assert.Equal(t, 0, StatusCode(stderrors.New("plain")))
}

func TestMetricCode(t *testing.T) {
	assert.Equal(t, "OFFER_CONFLICT", MetricCode(NewOfferConflictError("inv-1", nil)))
	assert.Equal(t, "API_ERROR", MetricCode(NewAPIError("GET", "/invoices/my", 500, "")))
	assert.Equal(t, "UNKNOWN", MetricCode(stderrors.New("boom")))
}
