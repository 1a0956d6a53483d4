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
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	ErrCodeDependencyFailure     = "DEPENDENCY_FAILURE"
	ErrCodeStoreFailure          = "STORE_FAILURE"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question must not be empty")
	ErrMissingDocumentFile = NewDomainError(ErrCodeValidation, "document file is required")
	ErrInvalidMetadata     = NewDomainError(ErrCodeValidation, "metadata must be a JSON object of strings")
	ErrNoEvaluationSamples = NewDomainError(ErrCodeValidation, "no evaluation samples provided")
)

// Dependency errors
var (
	ErrGenerationUnavailable = NewDomainError(ErrCodeDependencyUnavailable, "no generation model configured")
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeDependencyUnavailable, "no embedding model configured")
)

// NewStoreFailure wraps a datastore error. Store failures are hard failures:
// they propagate to the caller instead of degrading.
func NewStoreFailure(op string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStoreFailure, op, err)
}
