package request

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/document"
)

// Search parameter limits.
const (
	DefaultTopK      = 5
	MaxTopK          = 1000
	DefaultThreshold = 0.1
	MaxUserIDLength  = 256
)

// CacheKeyPrefix namespaces result cache keys in a shared store.
const CacheKeyPrefix = "vecrag:search:"

// Request is a validated retrieval query.
type Request struct {
	userID    string
	query     string
	topK      int
	threshold float64
}

// New validates and normalizes search parameters. Failures are *domain.ValidationError.
// A nil topK or threshold takes the default. A non-positive topK is kept and yields no results.
func New(userID, query string, topK *int, threshold *float64) (Request, error) {
	return build(userID, "text", query, topK, threshold)
}

// NewChat validates a chat message. The threshold stays at the default; the chat
// service ranks with its own configured threshold.
func NewChat(userID, message string, topK *int) (Request, error) {
	return build(userID, "message", message, topK, nil)
}

func build(userID, field, query string, topK *int, threshold *float64) (Request, error) {
	if strings.TrimSpace(userID) == "" {
		return Request{}, domain.NewValidationError("user_id is required")
	}
	if len(userID) > MaxUserIDLength {
		return Request{}, domain.NewValidationError("user_id too long (max %d)", MaxUserIDLength)
	}
	if err := document.ValidateField(field, query); err != nil {
		return Request{}, domain.NewValidationError("%s", err.Error())
	}

	k := DefaultTopK
	if topK != nil {
		k = min(*topK, MaxTopK)
	}
	th := DefaultThreshold
	if threshold != nil {
		th = *threshold
		if math.IsNaN(th) || math.IsInf(th, 0) {
			return Request{}, domain.NewValidationError("threshold must be a finite number")
		}
	}

	return Request{userID: userID, query: query, topK: k, threshold: th}, nil
}

// UserID returns the quota subject.
func (r *Request) UserID() string { return r.userID }

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// Threshold returns the exclusive minimum similarity.
func (r *Request) Threshold() float64 { return r.threshold }

// CacheKey derives the result cache key from query text, topK and threshold.
// The user is not part of the key: identical queries share cached results.
func (r *Request) CacheKey() string {
	h := sha256.New()
	h.Write([]byte(r.query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(r.topK)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(r.threshold, 'g', -1, 64)))
	return CacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
