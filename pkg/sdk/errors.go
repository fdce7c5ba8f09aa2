package prdrag

import (
	"errors"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/usecase/pipeline"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument         = domain.ErrInvalidArgument
	ErrEmptyContext            = domain.ErrEmptyContext
	ErrDimensionMismatch       = domain.ErrDimensionMismatch
	ErrRateLimited             = domain.ErrRateLimited
	ErrUnauthorized            = domain.ErrUnauthorized
	ErrTokenQuotaExceeded      = domain.ErrTokenQuotaExceeded
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)

// FailedStage returns the pipeline stage ("retrieving", "assembling", "generating")
// a Run or Prompt error came from, or "" if err carries none.
func FailedStage(err error) string {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return se.Stage.String()
	}
	return ""
}
