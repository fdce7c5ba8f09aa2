package domain

// DefaultTopK is the number of reference passages retrieved per query.
const DefaultTopK = 3

// ModelConfig holds internal model settings, not exposed to clients.
type ModelConfig struct {
	EmbeddingModel      string
	Dimensions          int
	GenerationModel     string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultModelConfig returns defaults matching the hosted OpenAI models.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		EmbeddingModel:  "text-embedding-3-small",
		Dimensions:      384,
		GenerationModel: "gpt-4o-mini",
	}
}
