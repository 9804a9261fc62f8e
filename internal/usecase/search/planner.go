package search

import (
	"github.com/helpdex/helpdex/internal/domain/search/mode"
	"github.com/helpdex/helpdex/internal/domain/search/plan"
	"github.com/helpdex/helpdex/internal/domain/search/request"
)

// Planner maps a validated request onto a weighted clause plan. The
// clause order is significant: auto mode escalates tier by tier, from
// the strictest strategy to the loosest.
type Planner struct{}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Build translates the request mode into strategy clauses. Explicit
// modes yield a single clause; auto yields all three, ordered by
// descending weight. The category filter applies to every tier.
func (p *Planner) Build(req *request.Request) plan.Plan {
	query := req.Query()

	var clauses []plan.Clause
	switch req.Mode() {
	case mode.Exact:
		clauses = []plan.Clause{plan.NewClause(plan.Exact, plan.ExactWeight, query)}
	case mode.Fuzzy:
		clauses = []plan.Clause{plan.NewClause(plan.Fuzzy, plan.FuzzyWeight, query)}
	case mode.Semantic:
		clauses = []plan.Clause{plan.NewClause(plan.Semantic, plan.SemanticWeight, query)}
	default:
		clauses = []plan.Clause{
			plan.NewClause(plan.Exact, plan.ExactWeight, query),
			plan.NewClause(plan.Fuzzy, plan.FuzzyWeight, query),
			plan.NewClause(plan.Semantic, plan.SemanticWeight, query),
		}
	}

	return plan.New(clauses, req.Categories())
}
