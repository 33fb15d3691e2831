package chi

type storeRequest struct {
	Text string `json:"text"`
}

type storeResponse struct {
	DocumentID int64  `json:"document_id"`
	Message    string `json:"message"`
}

type searchRequest struct {
	UserID    string   `json:"user_id"`
	Text      string   `json:"text"`
	TopK      *int     `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type searchResultItem struct {
	DocumentID int64   `json:"document_id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Results       []searchResultItem `json:"results"`
	InferenceTime float64            `json:"inference_time"`
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	TopK    *int   `json:"top_k,omitempty"`
}

type chatResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest              = "bad_request"
	codeValidationFailed        = "validation_failed"
	codeRateLimited             = "rate_limited"
	codeEmbeddingProviderError  = "embedding_provider_error"
	codeGenerationProviderError = "generation_provider_error"
	codeInternalError           = "internal_error"
)
