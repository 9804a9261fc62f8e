package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/helpdex/helpdex/internal/domain"
	"github.com/helpdex/helpdex/internal/domain/search/mode"
	"github.com/helpdex/helpdex/internal/domain/search/request"
	"github.com/helpdex/helpdex/internal/metrics"
	healthuc "github.com/helpdex/helpdex/internal/usecase/health"
	metricsuc "github.com/helpdex/helpdex/internal/usecase/metrics"
	ratelimituc "github.com/helpdex/helpdex/internal/usecase/ratelimit"
	searchuc "github.com/helpdex/helpdex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the search API.
type Server struct {
	search        *searchuc.Service
	limiter       *ratelimituc.Service
	store         *metricsuc.Aggregator
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	limiter *ratelimituc.Service,
	store *metricsuc.Aggregator,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		limiter: limiter,
		store:   store,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		rateLimitedHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrBackendTimeout, http.StatusGatewayTimeout, CodeBackendTimeout),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, CodeBackendUnavailable),
		sentinelHandler(domain.ErrBackendMalformed, http.StatusBadGateway, CodeBackendMalformed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// Search handles POST /api/v1/search. Decoding and validation run
// before the quota check: a malformed request is rejected without
// touching the caller's windows.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromDTO(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	d := s.limiter.CheckAndRecord(ClientID(r))
	w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(d.RemainingMinute))
	w.Header().Set("X-RateLimit-Remaining-Hour", strconv.Itoa(d.RemainingHour))
	if !d.Allowed {
		metrics.RateLimitedTotal.Inc()
		s.handleDomainError(w, domain.NewRateLimited(d.RetryAfter))
		return
	}

	resp, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		items[i] = SearchResultItem{
			ID:       res.ID(),
			Name:     res.Name(),
			Score:    res.Score(),
			Category: res.Category(),
			Snippet:  res.Snippet(),
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   resp.Query,
		Results: items,
		Content: resp.Blocks,
		Total:   resp.Total,
		TookMs:  resp.Took.Milliseconds(),
	})
}

// RateLimit handles GET /api/v1/rate-limit. It reports the caller's
// window state without consuming quota.
func (s *Server) RateLimit(w http.ResponseWriter, r *http.Request) {
	clientID := ClientID(r)
	st := s.limiter.Stats(clientID)
	g := s.limiter.Global()

	writeJSON(w, http.StatusOK, RateLimitResponse{
		ClientID: clientID,
		Minute: WindowStats{
			Count:     st.MinuteCount,
			Limit:     st.LimitMinute,
			Remaining: st.RemainingMinute,
		},
		Hour: WindowStats{
			Count:     st.HourCount,
			Limit:     st.LimitHour,
			Remaining: st.RemainingHour,
		},
		Global: GlobalLimiterStats{
			ActiveClients:   g.ActiveClients,
			TrackedRequests: g.TrackedRequests,
		},
	})
}

// MetricsSnapshot handles GET /api/v1/metrics with the in-process
// aggregator projection.
func (s *Server) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics (Prometheus exposition).
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequestFromDTO builds the domain request. Every failure wraps
// domain.ErrValidation so the sentinel chain maps it to a 400.
func searchRequestFromDTO(req SearchRequest) (request.Request, error) {
	var m mode.Mode
	if req.Mode != nil {
		m = mode.Mode(*req.Mode)
	}

	// Validate explicitly provided parameters (0 from deref means "not set").
	if req.Limit != nil && *req.Limit <= 0 {
		return request.Request{}, fmt.Errorf("%w: limit must be positive", domain.ErrValidation)
	}
	if req.Timeout != nil && *req.Timeout <= 0 {
		return request.Request{}, fmt.Errorf("%w: timeout must be positive", domain.ErrValidation)
	}
	if req.MinScore != nil && *req.MinScore < 0 {
		return request.Request{}, fmt.Errorf("%w: min_score must not be negative", domain.ErrValidation)
	}

	searchReq, err := request.New(
		req.Query,
		m,
		derefInt(req.Limit),
		derefInt(req.Offset),
		time.Duration(derefInt(req.Timeout))*time.Second,
		derefFloat(req.MinScore),
		req.Categories,
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return searchReq, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation detail derives from the caller's own input and passes through in full.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrRateLimited,
		domain.ErrBackendUnavailable,
		domain.ErrBackendTimeout,
		domain.ErrBackendMalformed,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rateLimitedHandler handles ErrRateLimited with the Retry-After header.
func rateLimitedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	var rle *domain.RateLimitedError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", strconv.Itoa(int(rle.RetryAfter.Seconds())))
	}
	writeError(w, http.StatusTooManyRequests, CodeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
