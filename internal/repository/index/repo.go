package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdex/helpdex/internal/db"
	"github.com/helpdex/helpdex/internal/domain"
	"github.com/helpdex/helpdex/internal/domain/search/plan"
	"github.com/helpdex/helpdex/internal/domain/search/result"
	"github.com/helpdex/helpdex/internal/logger"
)

// keyPrefix is stripped from document keys to obtain the document id.
const keyPrefix = "doc:"

// snippetLimit caps the snippet length in runes.
const snippetLimit = 200

// DefaultPoolSize is the candidate pool fetched per tier before fusion.
const DefaultPoolSize = 100

// searcher is the consumer interface for index operations (ISP).
type searcher interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config holds index repository parameters.
type Config struct {
	IndexName string
	PoolSize  int
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.IndexName == "" {
		c.IndexName = "docs:idx"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
}

// Repo executes query plans against the documentation index. It is the
// usecase/search backend: one text search per clause, an optional
// vector search beside the semantic clause, weighted-score fusion of
// everything into a single candidate list.
type Repo struct {
	store    searcher
	embedder domain.Embedder // nil disables the vector variant
	cfg      Config
}

// New creates an index repository. embedder may be nil.
func New(store searcher, embedder domain.Embedder, cfg Config) *Repo {
	cfg.ApplyDefaults()
	return &Repo{store: store, embedder: embedder, cfg: cfg}
}

var returnFields = []string{"name", "description", "category"}

// Execute runs every clause of the plan and fuses the hits. Scores are
// normalized to [0, 1] and weighted by clause before fusion, so the
// orchestrator's min_score threshold applies uniformly across tiers.
func (r *Repo) Execute(ctx context.Context, p plan.Plan) ([]result.Result, error) {
	groups := make([][]result.Result, 0, p.Tiers()+1)

	for _, clause := range p.Clauses() {
		hits, err := r.textTier(ctx, clause, p.Categories())
		if err != nil {
			return nil, err
		}
		groups = append(groups, hits)

		if clause.Strategy() == plan.Semantic && r.embedder != nil {
			vecHits, err := r.vectorTier(ctx, clause, p.Categories())
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					return nil, err
				}
				// The text variant already covers this tier; degrade, do not fail.
				logger.FromContext(ctx).Warn("vector tier degraded", zap.Error(err))
				continue
			}
			groups = append(groups, vecHits)
		}
	}

	return fuseMax(groups...), nil
}

func (r *Repo) textTier(ctx context.Context, clause plan.Clause, categories []string) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName:    r.cfg.IndexName,
		Terms:        clause.Query(),
		Kind:         textKind(clause.Strategy()),
		Categories:   categories,
		TopK:         r.cfg.PoolSize,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, mapBackendErr(err)
	}
	return parseTextHits(sr, clause.Weight())
}

func (r *Repo) vectorTier(ctx context.Context, clause plan.Clause, categories []string) ([]result.Result, error) {
	emb, err := r.embedder.Embed(ctx, clause.Query())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		Vector:       emb.Embedding,
		K:            r.cfg.PoolSize,
		Categories:   categories,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, mapBackendErr(err)
	}
	return parseVectorHits(sr, clause.Weight())
}

// textKind maps a clause tier onto the lexical query variant.
func textKind(s plan.Strategy) db.TextKind {
	switch s {
	case plan.Exact:
		return db.TextExact
	case plan.Fuzzy:
		return db.TextFuzzy
	default:
		return db.TextBroad
	}
}

// parseTextHits converts BM25 entries into weighted results. BM25
// scores are unbounded, so they are max-normalized within the tier
// before the clause weight applies.
func parseTextHits(sr *db.SearchResult, weight float64) ([]result.Result, error) {
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	var maxScore float64
	for _, e := range sr.Entries {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}

	out := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		res, err := toResult(e)
		if err != nil {
			return nil, err
		}
		var norm float64
		if maxScore > 0 {
			norm = e.Score / maxScore
		}
		out = append(out, res.WithScore(norm*weight))
	}
	return out, nil
}

// parseVectorHits converts KNN entries into weighted results. Entry
// scores are already cosine similarity in [0, 1].
func parseVectorHits(sr *db.SearchResult, weight float64) ([]result.Result, error) {
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		res, err := toResult(e)
		if err != nil {
			return nil, err
		}
		out = append(out, res.WithScore(e.Score*weight))
	}
	return out, nil
}

// toResult builds a domain result from one hit. A hit without a name
// violates the index contract.
func toResult(e db.SearchEntry) (result.Result, error) {
	name := e.Fields["name"]
	if name == "" {
		return result.Result{}, fmt.Errorf("%w: hit %q has no name field", domain.ErrBackendMalformed, e.Key)
	}

	id := strings.TrimPrefix(e.Key, keyPrefix)
	return result.New(id, name, 0, e.Fields["category"], snippet(e.Fields["description"])), nil
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}
	return string(runes[:snippetLimit]) + "..."
}

// mapBackendErr converts driver failures into the domain taxonomy.
// Deadline and cancellation pass through untouched so the orchestrator
// can classify them against its own deadline.
func mapBackendErr(err error) error {
	var dbErr *db.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: docs index missing", domain.ErrBackendUnavailable)
	case errors.As(err, &dbErr):
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrBackendMalformed, err)
	}
}
