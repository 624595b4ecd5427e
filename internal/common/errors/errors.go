// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"readiness-scorer/internal/readiness"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputInvalid        ErrorCode = "READINESS_INPUT_INVALID"
	ErrCodeInternalConsistency ErrorCode = "READINESS_INTERNAL_CONSISTENCY"
	ErrCodeScoringCancelled    ErrorCode = "READINESS_CANCELLED"
	ErrCodeScoringTimeout      ErrorCode = "READINESS_TIMEOUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
)

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

func (e *StandardError) Unwrap() error { return e.cause }

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInputInvalidError lists every rejected answer; the caller must fix the input.
func NewInputInvalidError(errs readiness.ValidationErrors) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputInvalid,
		Message:   "Assessment answers failed validation",
		Details:   errs.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"invalidFields": errs.Fields()},
		Timestamp: time.Now().UTC(),
		cause:     errs,
	}
}

// NewInternalConsistencyError signals a scoring defect; retrying cannot help.
func NewInternalConsistencyError(err *readiness.InternalConsistencyError) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalConsistency,
		Message:   "Score components failed consistency checks",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"component": err.Component},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewScoringCancelledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringCancelled,
		Message:   "Scoring was cancelled before completion",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewScoringTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringTimeout,
		Message:   "Scoring exceeded the job deadline",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// FromScoringError maps an error returned by the scorer onto a StandardError.
func FromScoringError(err error) *StandardError {
	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	var verrs readiness.ValidationErrors
	if stderrors.As(err, &verrs) {
		return NewInputInvalidError(verrs)
	}
	var ice *readiness.InternalConsistencyError
	if stderrors.As(err, &ice) {
		return NewInternalConsistencyError(ice)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewScoringTimeoutError(err)
	}
	if stderrors.Is(err, readiness.ErrScoringCancelled) || stderrors.Is(err, context.Canceled) {
		return NewScoringCancelledError(err)
	}
	return NewInternalError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExternalService:
		return 3
	case ErrCodeScoringTimeout, ErrCodeTimeout:
		return 2
	case ErrCodeScoringCancelled:
		return 1
	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONSISTENCY"):
		return "SCORING"
	case strings.Contains(codeStr, "CANCELLED") || strings.Contains(codeStr, "TIMEOUT"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "NOT_FOUND"):
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}
