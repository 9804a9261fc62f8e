package chi

import (
	"github.com/helpdex/helpdex/internal/domain/search/content"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeBackendUnavailable     ErrorCode = "backend_unavailable"
	CodeBackendTimeout         ErrorCode = "backend_timeout"
	CodeBackendMalformed       ErrorCode = "backend_malformed_response"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /api/v1/search body. Pointer fields
// distinguish "absent" from zero.
type SearchRequest struct {
	Query      string   `json:"query"`
	Mode       *string  `json:"mode,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
	Offset     *int     `json:"offset,omitempty"`
	Timeout    *int     `json:"timeout,omitempty"` // seconds
	MinScore   *float64 `json:"min_score,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// SearchResultItem is one scored hit in the response.
type SearchResultItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Category string  `json:"category,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
}

// SearchResponse is the POST /api/v1/search response.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []SearchResultItem `json:"results"`
	Content []content.Block    `json:"content"`
	Total   int                `json:"total"`
	TookMs  int64              `json:"took_ms"`
}

// WindowStats is one sliding-window quota view.
type WindowStats struct {
	Count     int `json:"count"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// GlobalLimiterStats summarizes limiter-wide state.
type GlobalLimiterStats struct {
	ActiveClients   int `json:"active_clients"`
	TrackedRequests int `json:"tracked_requests"`
}

// RateLimitResponse is the GET /api/v1/rate-limit response.
type RateLimitResponse struct {
	ClientID string             `json:"client_id"`
	Minute   WindowStats        `json:"minute"`
	Hour     WindowStats        `json:"hour"`
	Global   GlobalLimiterStats `json:"global"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
