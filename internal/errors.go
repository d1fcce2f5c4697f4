package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeUnavailable  ErrorType = "SERVICE_UNAVAILABLE"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidMobile    ErrorCode = "INVALID_MOBILE"
	ErrCodeInvalidPincode   ErrorCode = "INVALID_PINCODE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidBody      ErrorCode = "INVALID_REQUEST_BODY"

	ErrCodeServiceNotFound     ErrorCode = "SERVICE_NOT_FOUND"
	ErrCodeStateNotFound       ErrorCode = "STATE_NOT_FOUND"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeRecoveryNotFound    ErrorCode = "RECOVERY_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeLeadNotFound        ErrorCode = "LEAD_NOT_FOUND"

	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeDuplicate         ErrorCode = "DUPLICATE_RESOURCE"
	ErrCodeRecoveryClosed    ErrorCode = "RECOVERY_ALREADY_CLOSED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeAdminRequired      ErrorCode = "ADMIN_REQUIRED"

	ErrCodePaymentRequired          ErrorCode = "PAYMENT_REQUIRED"
	ErrCodePaymentSignatureMismatch ErrorCode = "PAYMENT_SIGNATURE_MISMATCH"
	ErrCodePaymentRecoveryPending   ErrorCode = "PAYMENT_RECOVERY_PENDING"
	ErrCodeGatewayError             ErrorCode = "GATEWAY_ERROR"
	ErrCodeGatewayNotConfigured     ErrorCode = "GATEWAY_NOT_CONFIGURED"
	ErrCodePaymentNotRecorded       ErrorCode = "PAYMENT_NOT_RECORDED"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if verrs, ok := e.Details.(ValidationErrors); ok && len(verrs.Errors) > 0 {
		return verrs.Errors[0].Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins every field message of a validation error.
func (e *AppError) GetDetailedMessage() string {
	verrs, ok := e.Details.(ValidationErrors)
	if !ok || len(verrs.Errors) == 0 {
		return e.Message
	}
	messages := make([]string, len(verrs.Errors))
	for i, fe := range verrs.Errors {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code, so copies of the package sentinels compare
// equal under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause and WithDetails return a copy; the package-level sentinels are
// shared across goroutines and must not be mutated.
func (e *AppError) WithCause(cause error) *AppError {
	c := *e
	c.Cause = cause
	return &c
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func newAppError(typ ErrorType, code ErrorCode, message string, status int) *AppError {
	return &AppError{Type: typ, Code: code, Message: message, StatusCode: status}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, message, http.StatusBadRequest)
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationError("Validation failed", ErrCodeValidationFailed).WithDetails(ValidationErrors{
		Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}},
	})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, http.StatusNotFound)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, code, message, http.StatusUnauthorized)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, code, message, http.StatusForbidden)
}

// NewInternalError hides cause from the client; only Message is serialized.
func NewInternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeInternal, ErrCodeInternal, message, http.StatusInternalServerError)
	e.Cause = cause
	return e
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, code, message, http.StatusConflict)
}

// NewExternalError reports a failure of an upstream provider. No local state was changed.
func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	e := newAppError(ErrorTypeExternal, code, message, http.StatusBadGateway)
	e.Cause = cause
	return e
}

func NewServiceUnavailableError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnavailable, code, message, http.StatusServiceUnavailable)
}

func NewRateLimitedError(message string) *AppError {
	return newAppError(ErrorTypeRateLimited, ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

var (
	ErrServiceNotFound     = NewNotFoundError("Service not found", ErrCodeServiceNotFound)
	ErrStateNotFound       = NewNotFoundError("State not found", ErrCodeStateNotFound)
	ErrApplicationNotFound = NewNotFoundError("RTI application not found", ErrCodeApplicationNotFound)
	ErrRecoveryNotFound    = NewNotFoundError("Payment recovery not found", ErrCodeRecoveryNotFound)
	ErrUserNotFound        = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrLeadNotFound        = NewNotFoundError("Record not found", ErrCodeLeadNotFound)

	ErrSignatureMismatch = NewValidationError("Payment verification failed", ErrCodePaymentSignatureMismatch)
	ErrPaymentRequired   = NewValidationError("This service requires payment", ErrCodePaymentRequired)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrAdminRequired      = NewForbiddenError("Admin access required", ErrCodeAdminRequired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	status := e.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Response{Error: e}
}

// MarshalJSON leaves out StatusCode and Cause.
func (e *AppError) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(wire{Type: e.Type, Code: e.Code, Message: e.Message, Details: e.Details})
}
