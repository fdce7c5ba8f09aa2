package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/prompt"
	"github.com/kailas-cloud/prdrag/internal/domain/search/request"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
	"github.com/kailas-cloud/prdrag/internal/logger"
	"github.com/kailas-cloud/prdrag/internal/metrics"
)

var tracer = otel.Tracer("github.com/kailas-cloud/prdrag/pipeline")

// Output is the result of a successful run.
type Output struct {
	RunID            string
	Text             string // generated text, unmodified
	Model            string
	Retrieved        []result.Result
	EmbeddingTokens  int
	GenerationTokens int
}

// Draft is the result of retrieval and assembly without generation.
type Draft struct {
	RunID     string
	Prompt    string
	Retrieved []result.Result
}

// Service runs query → retrieve → assemble → generate. Runs share no mutable state.
type Service struct {
	retriever Retriever
	assembler Assembler
	generator domain.Generator
	topK      int
	logger    *zap.Logger
}

// New creates a pipeline service. topK <= 0 means domain.DefaultTopK;
// values above request.MaxTopK are clamped to it.
func New(retriever Retriever, assembler Assembler, generator domain.Generator, topK int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case topK <= 0:
		topK = domain.DefaultTopK
	case topK > request.MaxTopK:
		logger.Warn("top_k above limit, clamping",
			zap.Int("top_k", topK), zap.Int("max_top_k", request.MaxTopK))
		topK = request.MaxTopK
	}
	return &Service{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// TopK returns the fixed number of passages retrieved per run.
func (s *Service) TopK() int { return s.topK }

// Run executes a full pipeline run. Failures are returned as *StageError.
// No stage is retried and no partial output is returned.
func (s *Service) Run(ctx context.Context, query string) (Output, error) {
	runID := uuid.NewString()
	ctx, usage := usageContext(ctx)
	log := s.runLogger(ctx, runID)

	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("top_k", s.topK),
	))
	defer span.End()

	retrieved, promptText, err := s.prepare(ctx, log, query)
	if err != nil {
		return Output{}, s.fail(span, log, err)
	}

	gen, err := s.generate(ctx, log, promptText)
	if err != nil {
		return Output{}, s.fail(span, log, err)
	}

	embTokens, _ := usage.EmbeddingTokens()
	genTokens, _ := usage.GenerationTokens()
	metrics.PipelineRunsTotal.WithLabelValues("success", StageDone.String()).Inc()
	log.Debug("pipeline done",
		zap.Int("retrieved", len(retrieved)),
		zap.Int("embedding_tokens", embTokens),
		zap.Int("generation_tokens", genTokens),
	)

	return Output{
		RunID:            runID,
		Text:             gen.Text,
		Model:            gen.Model,
		Retrieved:        retrieved,
		EmbeddingTokens:  embTokens,
		GenerationTokens: genTokens,
	}, nil
}

// Prompt runs retrieval and assembly only and returns the prompt that Run would send.
func (s *Service) Prompt(ctx context.Context, query string) (Draft, error) {
	runID := uuid.NewString()
	log := s.runLogger(ctx, runID)

	ctx, span := tracer.Start(ctx, "pipeline.Prompt", trace.WithAttributes(
		attribute.String("run_id", runID),
	))
	defer span.End()

	retrieved, promptText, err := s.prepare(ctx, log, query)
	if err != nil {
		return Draft{}, s.fail(span, log, err)
	}
	metrics.PipelineRunsTotal.WithLabelValues("dry_run", StageAssembling.String()).Inc()
	return Draft{RunID: runID, Prompt: promptText, Retrieved: retrieved}, nil
}

func (s *Service) prepare(ctx context.Context, log *zap.Logger, query string) ([]result.Result, string, error) {
	req, err := request.New(query, s.topK, s.topK)
	if err != nil {
		return nil, "", &StageError{Stage: StageRetrieving, Err: err}
	}

	var retrieved []result.Result
	err = s.stage(ctx, log, StageRetrieving, func(ctx context.Context) error {
		var rerr error
		retrieved, rerr = s.retriever.Retrieve(ctx, req.Query(), req.TopK())
		return rerr
	})
	if err != nil {
		return nil, "", err
	}

	var promptText string
	err = s.stage(ctx, log, StageAssembling, func(_ context.Context) error {
		if len(retrieved) == 0 && s.assembler.Policy() == prompt.PolicyDegrade {
			log.Warn("no reference documents retrieved, assembling without context")
		}
		var aerr error
		promptText, aerr = s.assembler.Assemble(prompt.Request{
			Query:     req.Query(),
			Retrieved: result.Texts(retrieved),
		})
		return aerr
	})
	if err != nil {
		return nil, "", err
	}
	return retrieved, promptText, nil
}

func (s *Service) generate(ctx context.Context, log *zap.Logger, promptText string) (domain.GenerationResult, error) {
	var gen domain.GenerationResult
	err := s.stage(ctx, log, StageGenerating, func(ctx context.Context) error {
		var gerr error
		gen, gerr = s.generator.Generate(ctx, promptText)
		return gerr
	})
	return gen, err
}

// stage runs fn as one traced, timed stage. Cancellation is checked before fn starts.
func (s *Service) stage(ctx context.Context, log *zap.Logger, st Stage, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "pipeline."+st.String())
	defer span.End()

	log.Debug("stage started", zap.Stringer("stage", st))
	start := time.Now()

	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	metrics.PipelineStageDuration.WithLabelValues(st.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: st, Err: err}
	}
	return nil
}

func (s *Service) fail(span trace.Span, log *zap.Logger, err error) error {
	stage := StageFailed
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.PipelineRunsTotal.WithLabelValues(outcome(err), stage.String()).Inc()

	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrInvalidArgument) {
		log.Info("pipeline failed", zap.Stringer("stage", stage), zap.Error(err))
	} else {
		log.Warn("pipeline failed", zap.Stringer("stage", stage), zap.Error(err))
	}
	return err
}

func (s *Service) runLogger(ctx context.Context, runID string) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger).With(zap.String("run_id", runID))
}

// usageContext reuses the caller's usage collector or installs a fresh one.
func usageContext(ctx context.Context) (context.Context, *domain.Usage) {
	if u := domain.UsageFromContext(ctx); u != nil {
		return ctx, u
	}
	return domain.NewContextWithUsage(ctx)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, domain.ErrEmptyContext):
		return "empty_context"
	default:
		return "error"
	}
}
