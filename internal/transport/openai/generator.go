package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// GeneratorConfig extends Config with sampling parameters.
type GeneratorConfig struct {
	Config
	Temperature float32
	MaxTokens   int // 0 = provider default
}

// Generator is a chat-completion provider using the OpenAI-compatible API.
// The prompt is sent as a single user message; there are no retries.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	user        string
	rec         recorder
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		user:        cfg.User,
		rec:         generationRecorder(cfg.Provider, cfg.Model),
		logger:      logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         g.temperature,
		MaxCompletionTokens: g.maxTokens,
		User:                g.user,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	took := time.Since(start)

	if err != nil {
		perr := parseAPIError("generation", err, domain.ErrGenerationProviderError)
		g.rec.failure(errorType(perr))
		return domain.GenerationResult{}, perr
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.rec.failure("empty_response")
		return domain.GenerationResult{}, fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}

	g.rec.success(took)
	g.rec.addTokens("prompt", resp.Usage.PromptTokens)
	g.rec.addTokens("completion", resp.Usage.CompletionTokens)

	if fr := resp.Choices[0].FinishReason; fr == openai.FinishReasonLength {
		g.logger.Warn("Completion truncated by max tokens",
			zap.String("model", g.model),
			zap.Int("max_tokens", g.maxTokens),
		)
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}
	return domain.GenerationResult{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
