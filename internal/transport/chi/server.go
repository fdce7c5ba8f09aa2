package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
	"github.com/kailas-cloud/prdrag/internal/domain/search/request"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
	domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"
	"github.com/kailas-cloud/prdrag/internal/logger"
	healthuc "github.com/kailas-cloud/prdrag/internal/usecase/health"
	"github.com/kailas-cloud/prdrag/internal/usecase/pipeline"
)

const maxBodyBytes = 1 << 20

// statusClientClosedRequest is the de-facto status for requests abandoned by the client.
const statusClientClosedRequest = 499

// PipelineRunner runs the RAG pipeline (ISP).
type PipelineRunner interface {
	Run(ctx context.Context, query string) (pipeline.Output, error)
	Prompt(ctx context.Context, query string) (pipeline.Draft, error)
	TopK() int
}

// Retriever serves ad-hoc retrieval and the corpus listing (ISP).
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]result.Result, error)
	Corpus() document.Corpus
}

// UsageReporter builds token budget reports (ISP).
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// HealthChecker aggregates component health (ISP).
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, resp ErrorResponse) bool

// Server serves the prdrag HTTP API.
type Server struct {
	pipeline      PipelineRunner
	retriever     Retriever
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline PipelineRunner,
	retriever Retriever,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline:  pipeline,
		retriever: retriever,
		usage:     usage,
		health:    health,
		logger:    logger,
	}
	// Order matters: provider failures wrap several sentinels, the most specific goes first.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrEmptyContext, http.StatusUnprocessableEntity, ErrorResponseCodeEmptyContext),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrTokenQuotaExceeded,
			http.StatusPaymentRequired, ErrorResponseCodeTokenQuotaExceeded),
		sentinelHandler(domain.ErrUnauthorized, http.StatusBadGateway, ErrorResponseCodeUpstreamUnauthorized),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError,
			http.StatusBadGateway, ErrorResponseCodeGenerationProviderError),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorResponseCodeTimeout),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
	}
	return s
}

// GeneratePRD handles POST /v1/prd.
func (s *Server) GeneratePRD(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.pipeline.Run(ctx, req.Query)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PRDResponse{
		RunID:    out.RunID,
		Document: out.Text,
		Model:    out.Model,
		Context:  passagesFromResults(out.Retrieved),
		Usage: TokenUsage{
			EmbeddingTokens:  out.EmbeddingTokens,
			GenerationTokens: out.GenerationTokens,
		},
	})
}

// AssemblePrompt handles POST /v1/prompt.
func (s *Server) AssemblePrompt(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	draft, err := s.pipeline.Prompt(ctx, req.Query)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PromptResponse{
		RunID:   draft.RunID,
		Prompt:  draft.Prompt,
		Context: passagesFromResults(draft.Retrieved),
	})
}

// RetrievePassages handles POST /v1/retrieve.
func (s *Server) RetrievePassages(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TopK != nil && *req.TopK <= 0 {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Code:    ErrorResponseCodeValidationFailed,
			Message: "top_k must be between 1 and " + strconv.Itoa(request.MaxTopK),
		})
		return
	}

	var topK int
	if req.TopK != nil {
		topK = *req.TopK
	}
	q, err := request.New(req.Query, topK, s.pipeline.TopK())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retriever.Retrieve(ctx, q.Query(), q.TopK())
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := passagesFromResults(results)
	writeJSON(w, http.StatusOK, PassageListResponse{Items: items, Total: len(items)})
}

// ListCorpus handles GET /v1/corpus.
func (s *Server) ListCorpus(w http.ResponseWriter, _ *http.Request) {
	docs := s.retriever.Corpus().Documents()
	items := make([]Passage, len(docs))
	for i, d := range docs {
		items[i] = Passage{ID: d.ID(), Tag: d.Tag(), Text: d.Text()}
	}
	writeJSON(w, http.StatusOK, PassageListResponse{Items: items, Total: len(items)})
}

// GetUsage handles GET /v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	if p := r.URL.Query().Get("period"); p != "" {
		period = domusage.Period(p)
	}

	report, err := s.usage.GetReport(r.Context(), period)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := UsageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Budgets:       make([]BudgetStatus, 0, len(report.Budgets())),
	}
	for _, b := range report.Budgets() {
		resp.Budgets = append(resp.Budgets, BudgetStatus{
			Kind:            string(b.Kind()),
			TokensUsed:      b.TokensUsed(),
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Code:    ErrorResponseCodeBadRequest,
			Message: "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if n, ok := usage.EmbeddingTokens(); ok {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(n))
	}
	if n, ok := usage.GenerationTokens(); ok {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(n))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation and quota errors carry their full message; provider errors only the sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrTokenQuotaExceeded) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmptyContext,
		domain.ErrRateLimited,
		domain.ErrUnauthorized,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrNotFound,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, resp ErrorResponse) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp.Code = code
		writeError(w, status, resp)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	if errors.Is(err, context.Canceled) {
		log.Info("request cancelled", zap.Error(err))
		writeError(w, statusClientClosedRequest, ErrorResponse{
			Code: ErrorResponseCodeCanceled, Message: context.Canceled.Error(),
		})
		return
	}
	log.Warn("domain error", zap.Error(err))

	resp := ErrorResponse{Message: safeDomainMessage(err)}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage.String()
	}
	for _, h := range s.errorHandlers {
		if h(w, err, resp) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	resp.Code = ErrorResponseCodeInternalError
	writeError(w, http.StatusInternalServerError, resp)
}

func passagesFromResults(rs []result.Result) []Passage {
	out := make([]Passage, len(rs))
	for i, r := range rs {
		d := r.Document()
		dist := r.Distance()
		out[i] = Passage{ID: d.ID(), Tag: d.Tag(), Text: d.Text(), Distance: &dist}
	}
	return out
}
