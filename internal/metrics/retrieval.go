package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QuotaDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Quota checks by outcome",
		},
		[]string{"decision"}, // "allowed" / "rejected"
	)

	QuotaResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_resets_total",
			Help:      "Periodic quota resets by status",
		},
		[]string{"status"}, // "ok" / "error"
	)

	DocumentsStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_stored_total",
			Help:      "Total number of documents stored",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers cache, quota and ingestion metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchCacheTotal, QuotaDecisionsTotal, QuotaResetsTotal, DocumentsStoredTotal)
	retrievalMetricsRegistered = true
}
