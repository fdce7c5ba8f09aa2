package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model provider call kinds, used as metric name prefixes.
const (
	kindEmbedding  = "embedding"
	kindGeneration = "generation"
)

// Per-call metrics of the embedding and generation providers.
// Both kinds share label sets, so dashboards can be templated on the prefix.
var (
	EmbeddingRequestsTotal    = requestsTotal(kindEmbedding)
	EmbeddingRequestDuration  = requestDuration(kindEmbedding, []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	EmbeddingTokensTotal      = tokensTotal(kindEmbedding)
	EmbeddingErrorsTotal      = errorsTotal(kindEmbedding)
	GenerationRequestsTotal   = requestsTotal(kindGeneration)
	GenerationRequestDuration = requestDuration(kindGeneration, []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80})
	GenerationTokensTotal     = tokensTotal(kindGeneration)
	GenerationErrorsTotal     = errorsTotal(kindGeneration)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	GenerationBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_breaker_state",
			Help:      "Generation circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_tokens_remaining",
			Help:      "Remaining token budget (-1 unlimited)",
		},
		[]string{"kind", "provider", "period"},
	)
)

func requestsTotal(kind string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      kind + "_requests_total",
		Help:      "Total number of " + kind + " requests",
	}, []string{"provider", "model", "status"})
}

func requestDuration(kind string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      kind + "_request_duration_seconds",
		Help:      kind + " request duration in seconds",
		Buckets:   buckets,
	}, []string{"provider", "model"})
}

// tokensTotal is labelled by type: "prompt", "completion" or "total".
func tokensTotal(kind string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      kind + "_tokens_total",
		Help:      "Total " + kind + " tokens consumed",
	}, []string{"provider", "model", "type"})
}

func errorsTotal(kind string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      kind + "_errors_total",
		Help:      "Total " + kind + " errors",
	}, []string{"provider", "model", "error_type"})
}
