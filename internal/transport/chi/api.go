package chi

import "time"

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorResponseCodeBadRequest              ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized            ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed        ErrorResponseCode = "validation_failed"
	ErrorResponseCodeEmptyContext            ErrorResponseCode = "empty_context"
	ErrorResponseCodeRateLimited             ErrorResponseCode = "rate_limited"
	ErrorResponseCodeTokenQuotaExceeded      ErrorResponseCode = "token_quota_exceeded"
	ErrorResponseCodeUpstreamUnauthorized    ErrorResponseCode = "upstream_unauthorized"
	ErrorResponseCodeEmbeddingProviderError  ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeGenerationProviderError ErrorResponseCode = "generation_provider_error"
	ErrorResponseCodeTimeout                 ErrorResponseCode = "timeout"
	ErrorResponseCodeCanceled                ErrorResponseCode = "canceled"
	ErrorResponseCodeNotFound                ErrorResponseCode = "not_found"
	ErrorResponseCodeInternalError           ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Stage   string            `json:"stage,omitempty"` // pipeline stage that failed
}

// QueryRequest is the body of POST /v1/prd and POST /v1/prompt.
type QueryRequest struct {
	Query string `json:"query"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// Passage is a corpus document, with its distance when it was retrieved.
type Passage struct {
	ID       int      `json:"id"`
	Tag      string   `json:"tag,omitempty"`
	Text     string   `json:"text"`
	Distance *float64 `json:"distance,omitempty"`
}

// TokenUsage reports tokens consumed by one request.
type TokenUsage struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	GenerationTokens int `json:"generation_tokens"`
}

// PRDResponse is the body of a successful POST /v1/prd.
type PRDResponse struct {
	RunID    string     `json:"run_id"`
	Document string     `json:"document"`
	Model    string     `json:"model,omitempty"`
	Context  []Passage  `json:"context"`
	Usage    TokenUsage `json:"usage"`
}

// PromptResponse is the body of a successful POST /v1/prompt.
type PromptResponse struct {
	RunID   string    `json:"run_id"`
	Prompt  string    `json:"prompt"`
	Context []Passage `json:"context"`
}

// PassageListResponse lists passages.
type PassageListResponse struct {
	Items []Passage `json:"items"`
	Total int       `json:"total"`
}

// BudgetStatus is one token budget in UsageResponse.
type BudgetStatus struct {
	Kind            string `json:"kind"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	IsExhausted     bool   `json:"is_exhausted"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period        string         `json:"period"`
	PeriodStartAt time.Time      `json:"period_start_at"`
	PeriodEndAt   time.Time      `json:"period_end_at"`
	Budgets       []BudgetStatus `json:"budgets"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
