package search

import (
	"context"
	"time"

	"github.com/helpdex/helpdex/internal/domain/search/content"
	"github.com/helpdex/helpdex/internal/domain/search/plan"
	"github.com/helpdex/helpdex/internal/domain/search/result"
)

// Backend executes a query plan against the documentation index and
// returns scored candidates. It must observe the context deadline.
type Backend interface {
	Execute(ctx context.Context, p plan.Plan) ([]result.Result, error)
}

// Recorder receives metric events from the orchestrator. Recording is
// best-effort and must never block the search path.
type Recorder interface {
	Inc(name string, delta float64)
	SetGauge(name string, value float64)
	Observe(name string, d time.Duration)
}

// Formatter renders the surviving page of results into content blocks.
type Formatter interface {
	Format(query string, total int, page []result.Result) []content.Block
}
