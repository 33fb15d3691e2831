package domain

import (
	"errors"
	"testing"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := NewValidationError("%s is required", "user_id")

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected *ValidationError")
	}
	if ve.Message != "user_id is required" {
		t.Errorf("Message = %q", ve.Message)
	}
}

func TestProviderError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewEmbeddingProviderError("cohere", "too many tokens", cause)

	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Error("expected ErrEmbeddingProviderError")
	}
	if errors.Is(err, ErrGenerationProviderError) {
		t.Error("embedding error must not match generation sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	want := "embedding provider error: too many tokens: connection reset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestProviderError_NoCause(t *testing.T) {
	err := NewGenerationProviderError("openai", "", nil)

	if !errors.Is(err, ErrGenerationProviderError) {
		t.Error("expected ErrGenerationProviderError")
	}
	if err.Error() != "generation provider error" {
		t.Errorf("Error() = %q", err.Error())
	}
}
