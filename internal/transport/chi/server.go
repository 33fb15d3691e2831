package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/vecrag/internal/logger"
	"github.com/kailas-cloud/vecrag/internal/version"
)

// maxBodyBytes caps request bodies well above the largest accepted document.
const maxBodyBytes = 1 << 20

const storedMessage = "Document stored successfully"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the retrieval HTTP API.
type Server struct {
	documents     DocumentStorer
	search        Searcher
	chat          Chatter
	quota         QuotaReader
	health        HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. quota may be nil (no X-Quota-Remaining header).
func NewServer(
	documents DocumentStorer,
	search Searcher,
	chat Chatter,
	quota QuotaReader,
	health HealthChecker,
) *Server {
	s := &Server{
		documents: documents,
		search:    search,
		chat:      chat,
		quota:     quota,
		health:    health,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, codeRateLimited),
		providerHandler(domain.ErrEmbeddingProviderError, codeEmbeddingProviderError),
		providerHandler(domain.ErrGenerationProviderError, codeGenerationProviderError),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/store", s.StoreDocument)
	r.Post("/search", s.SearchDocuments)
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// StoreDocument handles POST /store.
func (s *Server) StoreDocument(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stored, err := s.documents.Store(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(r.Context(), w, err, "store")
		return
	}

	setUsageHeaders(w, stored.Usage)
	writeJSON(w, http.StatusOK, storeResponse{DocumentID: stored.ID, Message: storedMessage})
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	searchReq, err := request.New(req.UserID, req.Text, req.TopK, req.Threshold)
	if err != nil {
		s.handleDomainError(r.Context(), w, err, "search")
		return
	}

	ctx := logpkg.With(r.Context(), zap.String("user_id", searchReq.UserID()))
	resp, err := s.search.Search(ctx, searchReq)
	s.setQuotaHeader(ctx, w, searchReq.UserID())
	if err != nil {
		s.handleDomainError(ctx, w, err, "search")
		return
	}
	setUsageHeaders(w, resp.Usage)

	items := make([]searchResultItem, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		items[i] = searchResultItem{
			DocumentID: res.DocumentID(),
			Text:       res.Text(),
			Similarity: res.Similarity(),
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: items, InferenceTime: resp.InferenceTime})
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	chatReq, err := request.NewChat(req.UserID, req.Message, req.TopK)
	if err != nil {
		s.handleDomainError(r.Context(), w, err, "chat")
		return
	}

	ctx := logpkg.With(r.Context(), zap.String("user_id", chatReq.UserID()))
	reply, err := s.chat.Chat(ctx, chatReq)
	s.setQuotaHeader(ctx, w, chatReq.UserID())
	if err != nil {
		s.handleDomainError(ctx, w, err, "chat")
		return
	}

	setUsageHeaders(w, reply.Usage)
	writeJSON(w, http.StatusOK, chatResponse{Message: reply.Text})
}

// HealthCheck handles GET /health. Always 200; degraded components are reported in the body.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  string(report.Status),
		Version: version.Get().String(),
		Checks:  checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage domain.TokenUsage) {
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Embedding))
	if n := usage.Generation(); n > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(n))
	}
}

func (s *Server) setQuotaHeader(ctx context.Context, w http.ResponseWriter, userID string) {
	if s.quota == nil || userID == "" {
		return
	}
	n, err := s.quota.Remaining(ctx, userID)
	if err != nil {
		logpkg.FromContext(ctx).Warn("Failed to read remaining quota", zap.Error(err))
		return
	}
	w.Header().Set("X-Quota-Remaining", strconv.Itoa(n))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// validationHandler exposes the validation message to the client.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, ve.Message)
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// providerHandler surfaces the upstream provider detail with a 500.
func providerHandler(kind error, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, kind) {
			return false
		}
		msg := kind.Error()
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			msg = pe.Error()
		}
		writeError(w, http.StatusInternalServerError, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := logpkg.FromContext(ctx).With(zap.String("operation", op))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
