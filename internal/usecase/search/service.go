package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/helpdex/helpdex/internal/domain"
	"github.com/helpdex/helpdex/internal/domain/search/content"
	"github.com/helpdex/helpdex/internal/domain/search/mode"
	"github.com/helpdex/helpdex/internal/domain/search/plan"
	"github.com/helpdex/helpdex/internal/domain/search/request"
	"github.com/helpdex/helpdex/internal/domain/search/result"
	"github.com/helpdex/helpdex/internal/logger"
	"github.com/helpdex/helpdex/internal/usecase/metrics"
)

// Response is the outcome of one search. Total counts all candidates
// that survived the score filter, not just the returned page.
type Response struct {
	Query   string
	Results []result.Result
	Blocks  []content.Block
	Total   int
	Took    time.Duration
}

// Service owns the end-to-end search operation: plans the query, runs
// it against the backend under the request deadline, then filters,
// ranks and paginates the candidates. It is the only place backend
// failures get classified.
type Service struct {
	backend   Backend
	planner   *Planner
	formatter Formatter
	recorder  Recorder
	active    atomic.Int64
}

// NewService creates the search orchestrator.
func NewService(backend Backend, formatter Formatter, recorder Recorder) *Service {
	return &Service{
		backend:   backend,
		planner:   NewPlanner(),
		formatter: formatter,
		recorder:  recorder,
	}
}

// Search executes one search request. Every invocation emits a duration
// timer and exactly one outcome counter.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()
	s.recorder.Inc(metrics.CounterRequests, 1)
	s.recorder.SetGauge(metrics.GaugeActive, float64(s.active.Add(1)))
	defer func() {
		s.recorder.SetGauge(metrics.GaugeActive, float64(s.active.Add(-1)))
		s.recorder.Observe(metrics.TimerDuration, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, req.Timeout())
	defer cancel()

	candidates, err := s.run(ctx, s.planner.Build(req), req)
	if err != nil {
		classified := classify(err)
		s.recorder.Inc(metrics.FailurePrefix+failureClass(classified), 1)
		logger.FromContext(ctx).Error("search failed",
			zap.String("query", req.Query()),
			zap.String("mode", string(req.Mode())),
			zap.Error(err),
		)
		return Response{}, classified
	}

	result.Sort(candidates)
	total := len(candidates)
	page := paginate(candidates, req.Offset(), req.Limit())

	if total == 0 {
		s.recorder.Inc(metrics.CounterNoMatch, 1)
	} else {
		s.recorder.Inc(metrics.CounterSuccess, 1)
	}

	return Response{
		Query:   req.Query(),
		Results: page,
		Blocks:  s.formatter.Format(req.Query(), total, page),
		Total:   total,
		Took:    time.Since(start),
	}, nil
}

// run dispatches to staged escalation for auto mode, or a single
// backend call for an explicit mode.
func (s *Service) run(ctx context.Context, p plan.Plan, req *request.Request) ([]result.Result, error) {
	if req.Mode() != mode.Auto {
		candidates, err := s.backend.Execute(ctx, p)
		if err != nil {
			return nil, err
		}
		return filterScore(candidates, req.MinScore()), nil
	}
	return s.escalate(ctx, p, req.MinScore())
}

// escalate runs the plan tier by tier, widening one clause at a time.
// A stage that yields any candidate at or above min_score stops the
// escalation; later, cheaper tiers are never consulted.
func (s *Service) escalate(ctx context.Context, p plan.Plan, minScore float64) ([]result.Result, error) {
	var candidates []result.Result
	for n := 1; n <= p.Tiers(); n++ {
		found, err := s.backend.Execute(ctx, p.Truncate(n))
		if err != nil {
			return nil, err
		}
		candidates = filterScore(found, minScore)
		if len(candidates) > 0 {
			break
		}
	}
	return candidates, nil
}

// filterScore drops candidates below the threshold, in place.
func filterScore(candidates []result.Result, minScore float64) []result.Result {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Score() >= minScore {
			kept = append(kept, c)
		}
	}
	return kept
}

// paginate slices one page out of the sorted candidates. An offset past
// the end yields an empty page.
func paginate(candidates []result.Result, offset, limit int) []result.Result {
	if offset >= len(candidates) {
		return []result.Result{}
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[offset:end]
}

// classify converts a raw backend failure into the error taxonomy. A
// failure that is already typed passes through; anything else is
// internal and must not leak its cause to callers.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	case errors.Is(err, domain.ErrBackendTimeout),
		errors.Is(err, domain.ErrBackendUnavailable),
		errors.Is(err, domain.ErrBackendMalformed):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
}

// failureClass names the outcome counter suffix for a classified error.
func failureClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrBackendTimeout):
		return "backend_timeout"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, domain.ErrBackendMalformed):
		return "backend_malformed_response"
	default:
		return "internal"
	}
}
