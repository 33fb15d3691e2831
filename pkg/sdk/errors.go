package vecrag

import "github.com/kailas-cloud/vecrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation              = domain.ErrValidation
	ErrQuotaExceeded           = domain.ErrQuotaExceeded
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)

// ValidationError carries the client-facing reason a request was rejected.
type ValidationError = domain.ValidationError

// ProviderError carries the upstream detail of a provider failure.
type ProviderError = domain.ProviderError
