package db

// TextKind selects the FT query syntax for a text search.
type TextKind string

const (
	// TextExact matches the terms as one exact phrase.
	TextExact TextKind = "exact"
	// TextFuzzy matches each term with Levenshtein tolerance.
	TextFuzzy TextKind = "fuzzy"
	// TextBroad matches terms across all descriptive fields with stemming.
	TextBroad TextKind = "broad"
)

// TextQuery is the input for a BM25 text search. Terms carry raw user
// text; escaping happens inside the driver.
type TextQuery struct {
	IndexName    string
	Terms        string
	Kind         TextKind
	Categories   []string
	TopK         int
	ReturnFields []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Categories   []string
	ReturnFields []string
}

// SearchResult is the output of a search operation. Entry scores are
// raw backend scores: BM25 for text, cosine similarity for KNN.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
