package mode

// Mode is the search strategy requested by the client.
type Mode string

// Search mode constants.
const (
	// Auto lets the orchestrator escalate from exact through fuzzy to semantic.
	Auto  Mode = "auto"
	Exact Mode = "exact"
	Fuzzy Mode = "fuzzy"
	// Semantic matches against description and keyword fields.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Auto || m == Exact || m == Fuzzy || m == Semantic
}
