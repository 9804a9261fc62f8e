package helpdex

// SearchMode controls the clause plan built for a query.
type SearchMode string

// Search mode constants.
const (
	ModeAuto     SearchMode = "auto"
	ModeExact    SearchMode = "exact"
	ModeFuzzy    SearchMode = "fuzzy"
	ModeSemantic SearchMode = "semantic"
)

// SearchRequest describes one search call. Zero fields take server
// defaults.
type SearchRequest struct {
	Query      string     `json:"query"`
	Mode       SearchMode `json:"mode,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
	TimeoutSec int        `json:"timeout,omitempty"`
	MinScore   float64    `json:"min_score,omitempty"`
	Categories []string   `json:"categories,omitempty"`
}

// SearchResult is a single search hit.
type SearchResult struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Category string  `json:"category,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
}

// ContentBlock is a presentation block of a search response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SearchResponse is the result of a search call.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Content []ContentBlock `json:"content"`
	Total   int            `json:"total"`
	TookMs  int64          `json:"took_ms"`
}

// WindowStats describes one sliding window of the caller's quota.
type WindowStats struct {
	Count     int `json:"count"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// GlobalLimiterStats describes the limiter as a whole.
type GlobalLimiterStats struct {
	ActiveClients   int `json:"active_clients"`
	TrackedRequests int `json:"tracked_requests"`
}

// RateLimitStatus is the caller's current quota state.
type RateLimitStatus struct {
	ClientID string             `json:"client_id"`
	Minute   WindowStats        `json:"minute"`
	Hour     WindowStats        `json:"hour"`
	Global   GlobalLimiterStats `json:"global"`
}

// TimerStats summarizes observed durations for one timer. Durations
// are reported in nanoseconds.
type TimerStats struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum"`
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Avg   int64 `json:"avg"`
}

// MetricsSnapshot is a point-in-time projection of the service's
// in-process aggregator.
type MetricsSnapshot struct {
	Counters       map[string]float64    `json:"counters"`
	Gauges         map[string]float64    `json:"gauges"`
	Timers         map[string]TimerStats `json:"timers"`
	SuccessRate    float64               `json:"success_rate"`
	ActiveRequests int                   `json:"active_requests"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
