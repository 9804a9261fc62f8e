package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/helpdex/helpdex/internal/domain"
	"github.com/helpdex/helpdex/internal/domain/search/mode"
	"github.com/helpdex/helpdex/internal/domain/search/plan"
	"github.com/helpdex/helpdex/internal/domain/search/request"
	"github.com/helpdex/helpdex/internal/domain/search/result"
	"github.com/helpdex/helpdex/internal/usecase/metrics"
)

type stubCall struct {
	results []result.Result
	err     error
}

// stubBackend replays canned responses and records every plan it was
// handed, so tests can assert on the escalation sequence.
type stubBackend struct {
	mu    sync.Mutex
	plans []plan.Plan
	calls []stubCall
}

func (b *stubBackend) Execute(_ context.Context, p plan.Plan) ([]result.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := len(b.plans)
	b.plans = append(b.plans, p)
	if i >= len(b.calls) {
		return nil, nil
	}
	return b.calls[i].results, b.calls[i].err
}

type captureRecorder struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
	observed []time.Duration
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (r *captureRecorder) Inc(name string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

func (r *captureRecorder) SetGauge(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
}

func (r *captureRecorder) Observe(_ string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, d)
}

func (r *captureRecorder) counter(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

func newSearchService(backend Backend, rec Recorder) *Service {
	return NewService(backend, NewTextFormatter(), rec)
}

func searchRequest(t *testing.T, m mode.Mode, limit, offset int, minScore float64) *request.Request {
	t.Helper()
	req, err := request.New("invoice posting", m, limit, offset, 0, minScore, nil)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func TestSearch_EscalationStopsAtFirstHit(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{result.New("doc-1", "PostInvoice", 0.95, "", "")}},
	}}
	rec := newCaptureRecorder()
	svc := newSearchService(backend, rec)

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Auto, 0, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.plans) != 1 {
		t.Fatalf("expected 1 backend call, got %d", len(backend.plans))
	}
	if backend.plans[0].Tiers() != 1 {
		t.Errorf("first stage must carry only the exact clause, got %d tiers", backend.plans[0].Tiers())
	}
	if resp.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Total)
	}
	if rec.counter(metrics.CounterSuccess) != 1 {
		t.Error("expected a success counter increment")
	}
}

func TestSearch_EscalatesThroughAllTiers(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{}, // exact: nothing
		{}, // exact+fuzzy: nothing
		{results: []result.Result{result.New("doc-1", "PostInvoice", 0.4, "", "")}},
	}}
	svc := newSearchService(backend, newCaptureRecorder())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Auto, 0, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.plans) != 3 {
		t.Fatalf("expected 3 backend calls, got %d", len(backend.plans))
	}
	for i, p := range backend.plans {
		if p.Tiers() != i+1 {
			t.Errorf("stage %d: expected %d tiers, got %d", i, i+1, p.Tiers())
		}
	}
	if resp.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Total)
	}
}

func TestSearch_EscalationIgnoresBelowThresholdHits(t *testing.T) {
	// Stage one returns a hit below min_score; escalation must continue.
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{result.New("doc-1", "PostInvoice", 0.2, "", "")}},
		{results: []result.Result{result.New("doc-2", "VoidInvoice", 0.8, "", "")}},
	}}
	svc := newSearchService(backend, newCaptureRecorder())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Auto, 0, 0, 0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.plans) != 2 {
		t.Fatalf("expected 2 backend calls, got %d", len(backend.plans))
	}
	if resp.Total != 1 || resp.Results[0].Name() != "VoidInvoice" {
		t.Errorf("expected only the second-stage hit, got %+v", resp.Results)
	}
}

func TestSearch_ExplicitModeSkipsEscalation(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{{}, {}, {}}}
	svc := newSearchService(backend, newCaptureRecorder())

	_, err := svc.Search(context.Background(), searchRequest(t, mode.Fuzzy, 0, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.plans) != 1 {
		t.Fatalf("explicit mode must issue one call, got %d", len(backend.plans))
	}
	if got := backend.plans[0].Clauses()[0].Strategy(); got != plan.Fuzzy {
		t.Errorf("expected fuzzy clause, got %q", got)
	}
}

func TestSearch_SortsAndPaginates(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{
			result.New("doc-1", "Beta", 0.5, "", ""),
			result.New("doc-2", "Alpha", 0.9, "", ""),
			result.New("doc-3", "Delta", 0.5, "", ""),
			result.New("doc-4", "Gamma", 0.7, "", ""),
		}},
	}}
	svc := newSearchService(backend, newCaptureRecorder())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 2, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 4 {
		t.Errorf("total must count all survivors, got %d", resp.Total)
	}
	// Full order: Alpha(0.9), Gamma(0.7), Beta(0.5), Delta(0.5).
	if len(resp.Results) != 2 {
		t.Fatalf("expected page of 2, got %d", len(resp.Results))
	}
	if resp.Results[0].Name() != "Gamma" || resp.Results[1].Name() != "Beta" {
		t.Errorf("unexpected page %q, %q", resp.Results[0].Name(), resp.Results[1].Name())
	}
}

func TestSearch_OffsetBeyondEndYieldsEmptyPage(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{result.New("doc-1", "Alpha", 0.9, "", "")}},
	}}
	svc := newSearchService(backend, newCaptureRecorder())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 10, 50, 0))
	if err != nil {
		t.Fatalf("offset past the end must not be an error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty page, got %d results", len(resp.Results))
	}
	if resp.Total != 1 {
		t.Errorf("total must still report survivors, got %d", resp.Total)
	}
}

func TestSearch_MinScoreFilters(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{
			result.New("doc-1", "Alpha", 0.9, "", ""),
			result.New("doc-2", "Beta", 0.05, "", ""),
		}},
	}}
	svc := newSearchService(backend, newCaptureRecorder())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 0, 0, 0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || resp.Results[0].Name() != "Alpha" {
		t.Errorf("expected only Alpha to survive, got %+v", resp.Results)
	}
}

func TestSearch_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		backend error
		want    error
		class   string
	}{
		{"deadline", context.DeadlineExceeded, domain.ErrBackendTimeout, "backend_timeout"},
		{"typed timeout", fmt.Errorf("%w: dial", domain.ErrBackendTimeout), domain.ErrBackendTimeout, "backend_timeout"},
		{"unavailable", fmt.Errorf("%w: refused", domain.ErrBackendUnavailable), domain.ErrBackendUnavailable, "backend_unavailable"},
		{"malformed", fmt.Errorf("%w: bad hit", domain.ErrBackendMalformed), domain.ErrBackendMalformed, "backend_malformed_response"},
		{"unclassified", errors.New("boom"), domain.ErrInternal, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &stubBackend{calls: []stubCall{{err: tc.backend}}}
			rec := newCaptureRecorder()
			svc := newSearchService(backend, rec)

			_, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 0, 0, 0))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if rec.counter(metrics.FailurePrefix+tc.class) != 1 {
				t.Errorf("expected failure counter %q", tc.class)
			}
			if rec.counter(metrics.CounterSuccess) != 0 {
				t.Error("failed search must not count as success")
			}
		})
	}
}

// blockingBackend never answers on its own; it returns only once the
// call's context expires.
type blockingBackend struct{}

func (blockingBackend) Execute(ctx context.Context, _ plan.Plan) ([]result.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSearch_RequestTimeoutBoundsBackendCall(t *testing.T) {
	req, err := request.New("invoice posting", mode.Exact, 0, 0, time.Second, 0, nil)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	rec := newCaptureRecorder()
	svc := newSearchService(blockingBackend{}, rec)

	start := time.Now()
	_, err = svc.Search(context.Background(), &req)
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected backend timeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("search ran %s past a 1s request timeout", elapsed)
	}
	if rec.counter(metrics.FailurePrefix+"backend_timeout") != 1 {
		t.Error("expected a backend_timeout failure counter increment")
	}
}

func TestSearch_InternalErrorHidesCauseClass(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{{err: errors.New("index corrupted at segment 12")}}}
	svc := newSearchService(backend, newCaptureRecorder())

	_, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 0, 0, 0))
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal classification, got %v", err)
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		t.Error("unclassified failure must not masquerade as a backend class")
	}
}

func TestSearch_NoMatchIsNotAnError(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{{}, {}, {}}}
	rec := newCaptureRecorder()
	svc := newSearchService(backend, rec)

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Auto, 0, 0, 0))
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if resp.Total != 0 || len(resp.Blocks) != 1 {
		t.Errorf("expected empty response with one block, got total=%d blocks=%d", resp.Total, len(resp.Blocks))
	}
	if rec.counter(metrics.CounterNoMatch) != 1 {
		t.Error("expected a no_match counter increment")
	}
	if rec.counter(metrics.CounterSuccess) != 0 {
		t.Error("no_match must be its own outcome class")
	}
}

func TestSearch_EmitsTimerAndActiveGauge(t *testing.T) {
	backend := &stubBackend{calls: []stubCall{
		{results: []result.Result{result.New("doc-1", "Alpha", 0.9, "", "")}},
	}}
	rec := newCaptureRecorder()
	svc := newSearchService(backend, rec)

	if _, err := svc.Search(context.Background(), searchRequest(t, mode.Exact, 0, 0, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.observed) != 1 {
		t.Errorf("expected exactly one duration sample, got %d", len(rec.observed))
	}
	if rec.counters[metrics.CounterRequests] != 1 {
		t.Errorf("expected request counter 1, got %v", rec.counters[metrics.CounterRequests])
	}
	if rec.gauges[metrics.GaugeActive] != 0 {
		t.Errorf("active gauge must return to 0, got %v", rec.gauges[metrics.GaugeActive])
	}
}
