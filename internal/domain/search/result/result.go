package result

import "sort"

// Result is a single scored documentation hit.
type Result struct {
	id       string
	name     string
	score    float64
	category string
	snippet  string
}

// New creates a search result.
func New(id, name string, score float64, category, snippet string) Result {
	return Result{id: id, name: name, score: score, category: category, snippet: snippet}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Name returns the display name.
func (r *Result) Name() string { return r.name }

// Score returns the relevance score in [0, 1].
func (r *Result) Score() float64 { return r.score }

// Category returns the category tag.
func (r *Result) Category() string { return r.category }

// Snippet returns the rendered snippet.
func (r *Result) Snippet() string { return r.snippet }

// WithScore returns a copy with the score replaced.
func (r *Result) WithScore(score float64) Result {
	c := *r
	c.score = score
	return c
}

// Sort orders results by descending score, breaking ties by ascending
// name. Identical requests against unchanged backend state therefore
// paginate identically.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].name < results[j].name
	})
}
