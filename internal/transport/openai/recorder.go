package openai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prdrag/internal/metrics"
)

// recorder books one provider call into the request, duration, token and error series.
type recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	errs     *prometheus.CounterVec
	provider string
	model    string
}

func embeddingRecorder(provider, model string) recorder {
	return recorder{
		requests: metrics.EmbeddingRequestsTotal,
		duration: metrics.EmbeddingRequestDuration,
		tokens:   metrics.EmbeddingTokensTotal,
		errs:     metrics.EmbeddingErrorsTotal,
		provider: provider,
		model:    model,
	}
}

func generationRecorder(provider, model string) recorder {
	return recorder{
		requests: metrics.GenerationRequestsTotal,
		duration: metrics.GenerationRequestDuration,
		tokens:   metrics.GenerationTokensTotal,
		errs:     metrics.GenerationErrorsTotal,
		provider: provider,
		model:    model,
	}
}

func (r recorder) failure(errType string) {
	r.requests.WithLabelValues(r.provider, r.model, "error").Inc()
	r.errs.WithLabelValues(r.provider, r.model, errType).Inc()
}

func (r recorder) success(took time.Duration) {
	r.requests.WithLabelValues(r.provider, r.model, "success").Inc()
	r.duration.WithLabelValues(r.provider, r.model).Observe(took.Seconds())
}

func (r recorder) addTokens(tokenType string, n int) {
	if n > 0 {
		r.tokens.WithLabelValues(r.provider, r.model, tokenType).Add(float64(n))
	}
}
