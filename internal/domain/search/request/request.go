package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/helpdex/helpdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength  = 1000
	DefaultLimit    = 20
	MaxLimit        = 100
	DefaultTimeout  = 30 * time.Second
	MaxTimeout      = 300 * time.Second
	DefaultMinScore = 0.1
	MaxCategories   = 50
	MaxCategoryLen  = 100
)

// forbiddenChars are rejected in queries before they reach the backend.
const forbiddenChars = `<>{}\;&|`

// Request is a validated, immutable search request.
type Request struct {
	query      string
	searchMode mode.Mode
	limit      int
	offset     int
	timeout    time.Duration
	minScore   float64
	categories []string
}

// New validates and normalizes search parameters.
// Defaults: mode=auto, limit=20, offset=0, timeout=30s, min_score=0.1.
func New(
	query string,
	m mode.Mode,
	limit, offset int,
	timeout time.Duration,
	minScore float64,
	categories []string,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if strings.ContainsAny(query, forbiddenChars) {
		return Request{}, fmt.Errorf("query contains forbidden characters")
	}
	if m == "" {
		m = mode.Auto
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < time.Second || timeout > MaxTimeout {
		return Request{}, fmt.Errorf("timeout must be between 1 and %d seconds", int(MaxTimeout.Seconds()))
	}
	if minScore == 0 {
		minScore = DefaultMinScore
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1")
	}
	if len(categories) > MaxCategories {
		return Request{}, fmt.Errorf("too many categories (max %d)", MaxCategories)
	}
	for _, c := range categories {
		if c == "" || len(c) > MaxCategoryLen {
			return Request{}, fmt.Errorf("invalid category name %q", c)
		}
	}

	return Request{
		query:      query,
		searchMode: m,
		limit:      limit,
		offset:     offset,
		timeout:    timeout,
		minScore:   minScore,
		categories: categories,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results per page.
func (r *Request) Limit() int { return r.limit }

// Offset returns the pagination offset.
func (r *Request) Offset() int { return r.offset }

// Timeout returns the backend call deadline.
func (r *Request) Timeout() time.Duration { return r.timeout }

// MinScore returns the minimum relevance threshold.
func (r *Request) MinScore() float64 { return r.minScore }

// Categories returns the hard category filter (nil when unset).
func (r *Request) Categories() []string { return r.categories }
