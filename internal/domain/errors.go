package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeAmountInvalid   ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeCurrencyInvalid ErrorCode = "VALIDATION_CURRENCY_INVALID"
	ErrorCodeMissingField    ErrorCode = "VALIDATION_MISSING_FIELD"

	// Processor Errors (PROCESSOR_*)
	ErrorCodeProcessorRejected    ErrorCode = "PROCESSOR_REJECTED"
	ErrorCodeProcessorUnavailable ErrorCode = "PROCESSOR_UNAVAILABLE"

	// Webhook Errors (WEBHOOK_*)
	ErrorCodeSignatureInvalid ErrorCode = "WEBHOOK_SIGNATURE_INVALID"
	ErrorCodeEventDuplicate   ErrorCode = "WEBHOOK_EVENT_DUPLICATE"
	ErrorCodeEventMalformed   ErrorCode = "WEBHOOK_EVENT_MALFORMED"

	// Record Errors (RECORD_*)
	ErrorCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodePartialWrite   ErrorCode = "RECORD_PARTIAL_WRITE"

	// Configuration Errors (CONFIG_*)
	ErrorCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeAmountInvalid ||
		code == ErrorCodeCurrencyInvalid ||
		code == ErrorCodeMissingField
}

// IsRetryable reports whether the caller may safely retry the request
// with the same idempotency key
func IsRetryable(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeProcessorUnavailable ||
		code == ErrorCodePartialWrite
}

// Structured error instances
var (
	ErrInvalidAmount   = NewDomainError(ErrorCodeAmountInvalid, "amount must be a positive integer in minor units")
	ErrInvalidCurrency = NewDomainError(ErrorCodeCurrencyInvalid, "invalid currency code")

	ErrProcessorRejected    = NewDomainError(ErrorCodeProcessorRejected, "payment processor rejected the request")
	ErrProcessorUnavailable = NewDomainError(ErrorCodeProcessorUnavailable, "payment processor is unavailable")

	ErrSignatureInvalid = NewDomainError(ErrorCodeSignatureInvalid, "webhook signature verification failed")
	ErrEventMalformed   = NewDomainError(ErrorCodeEventMalformed, "webhook event payload is malformed")

	ErrRecordNotFound = NewDomainError(ErrorCodeRecordNotFound, "payment record not found")
	ErrPartialWrite   = NewDomainError(ErrorCodePartialWrite, "processor intent created but local record is not durable")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
