package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeContract         = "CONTRACT_VIOLATION"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors: bad input surfaced to the caller as a structured
// result, the pipeline keeps running.
var (
	ErrMissingProjectName   = NewDomainError(ErrCodeValidation, "project name is required")
	ErrMissingContent       = NewDomainError(ErrCodeValidation, "content is required")
	ErrMissingQuery         = NewDomainError(ErrCodeValidation, "query is required")
	ErrInvalidKnowledgeType = NewDomainError(ErrCodeValidation, "invalid knowledge type")
)

// Not found errors
var (
	ErrUnitNotFound         = NewDomainError(ErrCodeNotFound, "knowledge unit not found")
	ErrContinuationNotFound = NewDomainError(ErrCodeNotFound, "no continuation stored for project")
)

// Contract violations: usage bugs in the immediate caller, the only
// conditions that surface as hard failures.
var (
	ErrNegativeK         = NewDomainError(ErrCodeContract, "search k must not be negative")
	ErrDimensionMismatch = NewDomainError(ErrCodeContract, "vector dimension does not match index")
)
