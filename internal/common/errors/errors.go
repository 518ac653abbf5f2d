// Package errors provides standardized error handling for the borrower client.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	ErrCodeAPIError       ErrorCode = "API_ERROR"
	ErrCodeNetworkError   ErrorCode = "NETWORK_ERROR"
	ErrCodeContractFailed ErrorCode = "RESPONSE_CONTRACT_FAILED"

	ErrCodeOfferConflict        ErrorCode = "OFFER_CONFLICT"
	ErrCodeOfferNotFound        ErrorCode = "OFFER_NOT_FOUND"
	ErrCodeMultipleActiveOffers ErrorCode = "MULTIPLE_ACTIVE_OFFERS"
	ErrCodeTermsNotAccepted     ErrorCode = "TERMS_NOT_ACCEPTED"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"

	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeStatementExportFailed  ErrorCode = "STATEMENT_EXPORT_FAILED"
)

// DefaultAPIMessage is shown when the backend body carries no usable message.
const DefaultAPIMessage = "Request failed."

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrSessionExpired is the sentinel matched by errors.Is for irrecoverable 401s.
var ErrSessionExpired = &StandardError{Code: ErrCodeSessionExpired, Message: "Session expired"}

// APIError is a non-2xx backend response. Message is the text shown to the user.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// IsConflict reports whether the backend answered 409.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(field, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionExpiredError is returned once the single refresh attempt is spent.
func NewSessionExpiredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionExpired,
		Message:   "Session expired, please log in again",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAPIError builds the error for a non-2xx response.
func NewAPIError(method, path string, status int, message string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = DefaultAPIMessage
	}
	return &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Message:    message,
	}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   "Unable to reach the server",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewContractError is returned when a response body does not match its schema.
func NewContractError(path, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContractFailed,
		Message:   "Unexpected response from server",
		Details:   fmt.Sprintf("path: %s, %s", path, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOfferNotFoundError creates a non-retryable offer lookup error.
func NewOfferNotFoundError(invoiceID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOfferNotFound,
		Message:   "No offer available for this invoice",
		Details:   fmt.Sprintf("invoiceId: %s", invoiceID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOfferConflictError wraps a 409 from offer generation that could not be resolved.
func NewOfferConflictError(invoiceID string, cause error) *StandardError {
	msg := "Offer already generated"
	if cause != nil {
		msg = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeOfferConflict,
		Message:   msg,
		Details:   fmt.Sprintf("invoiceId: %s", invoiceID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewMultipleActiveOffersError flags a broken one-active-offer-per-invoice assumption.
func NewMultipleActiveOffersError(invoiceID, loanType string, count int) *StandardError {
	return &StandardError{
		Code:      ErrCodeMultipleActiveOffers,
		Message:   "More than one active offer returned for this invoice",
		Details:   fmt.Sprintf("invoiceId: %s, loanType: %s, count: %d", invoiceID, loanType, count),
		Retryable: false,
		Metadata:  map[string]interface{}{"invoiceId": invoiceID, "count": count},
		Timestamp: time.Now().UTC(),
	}
}

// NewTermsNotAcceptedError is raised when signing without accepting terms.
func NewTermsNotAcceptedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeTermsNotAccepted,
		Message:   "Please accept the terms to continue",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports a wizard action not allowed in the current step.
func NewInvalidTransitionError(flow, from, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("cannot %s from step %s", action, from),
		Details:   fmt.Sprintf("flow: %s", flow),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError creates a retryable session persistence error.
func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session storage error",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to send reminder",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStatementExportFailedError creates a retryable export error.
func NewStatementExportFailedError(loanID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatementExportFailed,
		Message:   "Failed to export EMI statement",
		Details:   fmt.Sprintf("loanId: %s, error: %s", loanID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns how many times a background job may retry an error code.
// User-facing actions never retry automatically.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNotificationSendFailed,
		ErrCodeStatementExportFailed:
		return 3

	case ErrCodeNetworkError,
		ErrCodeSessionStoreFailed:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "AUTH"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "API") || strings.Contains(codeStr, "CONTRACT"):
		return "NETWORK"
	case strings.Contains(codeStr, "OFFER") || strings.Contains(codeStr, "TERMS"):
		return "BUSINESS"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "STATEMENT"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// Code extracts the ErrorCode from err, or "" when err is not a StandardError.
func Code(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// StatusCode returns the HTTP status of an APIError in the chain, or 0.
func StatusCode(err error) int {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// UserMessage returns the text a screen should display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae.Message
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// MetricCode returns a bounded label for err: its StandardError code,
// API_ERROR for backend rejections, otherwise UNKNOWN.
func MetricCode(err error) string {
	if code := Code(err); code != "" {
		return string(code)
	}
	if StatusCode(err) != 0 {
		return string(ErrCodeAPIError)
	}
	return "UNKNOWN"
}
