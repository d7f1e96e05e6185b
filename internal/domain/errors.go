package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Identity & device gate errors
	CodeInvalidLoginID     ErrorCode = "INVALID_LOGIN_ID"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeDeviceConflict     ErrorCode = "DEVICE_CONFLICT"

	// Exam session errors
	CodeExamNotFound         ErrorCode = "EXAM_NOT_FOUND"
	CodeExamAlreadyCompleted ErrorCode = "EXAM_ALREADY_COMPLETED"
	CodeAttemptNotFound      ErrorCode = "ATTEMPT_NOT_FOUND"
	CodeSessionNotActive     ErrorCode = "SESSION_NOT_ACTIVE"
	CodeSubmitInProgress     ErrorCode = "SUBMIT_IN_PROGRESS"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewInvalidLoginIDError(loginID string) *DomainError {
	return NewError(CodeInvalidLoginID, fmt.Sprintf("No account found for login ID: %s", loginID), nil)
}

func NewInvalidCredentialsError() *DomainError {
	return NewError(CodeInvalidCredentials, "Invalid login ID or password", nil)
}

// NewDeviceConflictError is returned when a device fingerprint is already
// bound to a different account.
func NewDeviceConflictError() *DomainError {
	return NewError(CodeDeviceConflict, "This device is registered to another account", nil)
}

func NewExamNotFoundError(examID string) *DomainError {
	return NewError(CodeExamNotFound, fmt.Sprintf("Exam not found: %s", examID), nil)
}

func NewExamAlreadyCompletedError(examID string) *DomainError {
	return NewError(CodeExamAlreadyCompleted,
		"This exam has already been completed. Contact an administrator for a retake.", nil).
		WithContext("exam_id", examID)
}

func NewAttemptNotFoundError(attemptID string) *DomainError {
	return NewError(CodeAttemptNotFound, fmt.Sprintf("Attempt not found: %s", attemptID), nil)
}

func NewSessionNotActiveError(attemptID string) *DomainError {
	return NewError(CodeSessionNotActive, fmt.Sprintf("No active session for attempt: %s", attemptID), nil)
}

func NewSubmitInProgressError() *DomainError {
	return NewError(CodeSubmitInProgress, "Submission is already in progress", nil)
}

// WithContext attaches a key/value pair for the error response details.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of field validation failures that is
// itself an error, so handlers can return it directly.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %v", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", min, max, value)}
}
