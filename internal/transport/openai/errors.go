package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// parseAPIError extracts a readable message from an API failure and wraps it with
// the provider sentinel. 429 also wraps domain.ErrRateLimited, 401/403 domain.ErrUnauthorized.
func parseAPIError(kind string, err error, provider error) error {
	var status int
	var msg string

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		status, msg = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		if msg = extractDetail(reqErr.Body); msg == "" {
			msg = string(reqErr.Body)
		}
	default:
		return fmt.Errorf("%s request failed: %w: %w", kind, provider, err)
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s API error %d: %s: %w: %w", kind, status, msg, provider, domain.ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s API error %d: %s: %w: %w", kind, status, msg, provider, domain.ErrUnauthorized)
	default:
		return fmt.Errorf("%s API error %d: %s: %w", kind, status, msg, provider)
	}
}

// errorType is the metrics label for a parsed API error.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "api_error"
	}
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
