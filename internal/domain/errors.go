package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrQuotaExceeded signals that the user has used up the request quota for the current window.
	ErrQuotaExceeded = errors.New("request quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrCorruptVector signals a stored embedding that cannot be decoded.
	ErrCorruptVector = errors.New("corrupt vector")
)

// ValidationError wraps ErrValidation with a client-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error with the given message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError carries the upstream detail of an embedding or generation failure.
// Kind is ErrEmbeddingProviderError or ErrGenerationProviderError.
type ProviderError struct {
	Kind     error
	Provider string
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewEmbeddingProviderError creates an embedding provider error.
func NewEmbeddingProviderError(provider, detail string, cause error) error {
	return &ProviderError{Kind: ErrEmbeddingProviderError, Provider: provider, Detail: detail, Err: cause}
}

// NewGenerationProviderError creates a generation provider error.
func NewGenerationProviderError(provider, detail string, cause error) error {
	return &ProviderError{Kind: ErrGenerationProviderError, Provider: provider, Detail: detail, Err: cause}
}
