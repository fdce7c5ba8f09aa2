package domain

import "context"

// Generator turns an assembled prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage through the decorator chain.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// EchoGenerator returns the prompt unchanged. Used for dry runs and tests.
type EchoGenerator struct{}

// Generate implements Generator.
func (EchoGenerator) Generate(ctx context.Context, prompt string) (GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return GenerationResult{}, err
	}
	return GenerationResult{Text: prompt, Model: "echo"}, nil
}
