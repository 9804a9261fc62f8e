package plan

// Strategy identifies a query tier.
type Strategy string

// Query tiers, broadest-recall last.
const (
	Exact    Strategy = "exact"
	Fuzzy    Strategy = "fuzzy"
	Semantic Strategy = "semantic"
)

// Tier weights applied to backend scores.
const (
	ExactWeight    = 1.0
	FuzzyWeight    = 0.6
	SemanticWeight = 0.3
)

// Clause is a single weighted should-clause of a query plan.
type Clause struct {
	strategy Strategy
	weight   float64
	query    string
}

// NewClause creates a weighted clause.
func NewClause(s Strategy, weight float64, query string) Clause {
	return Clause{strategy: s, weight: weight, query: query}
}

// Strategy returns the clause tier.
func (c Clause) Strategy() Strategy { return c.strategy }

// Weight returns the clause weight.
func (c Clause) Weight() float64 { return c.weight }

// Query returns the clause query text.
func (c Clause) Query() string { return c.query }

// Plan is an ordered list of weighted clauses plus an optional hard
// category filter. Built fresh per request, never shared.
type Plan struct {
	clauses    []Clause
	categories []string
}

// New creates a plan. Clauses must be ordered by descending weight.
func New(clauses []Clause, categories []string) Plan {
	return Plan{clauses: clauses, categories: categories}
}

// Clauses returns the ordered clauses.
func (p Plan) Clauses() []Clause { return p.clauses }

// Categories returns the hard category filter (nil when unset).
func (p Plan) Categories() []string { return p.categories }

// Tiers returns the number of clauses.
func (p Plan) Tiers() int { return len(p.clauses) }

// Truncate returns a plan containing only the first n clauses.
// The category filter is never relaxed by truncation.
func (p Plan) Truncate(n int) Plan {
	if n >= len(p.clauses) {
		return p
	}
	return Plan{clauses: p.clauses[:n], categories: p.categories}
}
