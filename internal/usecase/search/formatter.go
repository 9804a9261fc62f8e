package search

import (
	"fmt"
	"strings"

	"github.com/helpdex/helpdex/internal/domain/search/content"
	"github.com/helpdex/helpdex/internal/domain/search/result"
)

// Relevance labels attached to formatted results.
const (
	relevanceVeryHigh = "very_high"
	relevanceHigh     = "high"
	relevanceMedium   = "medium"
	relevanceLow      = "low"
	relevanceVeryLow  = "very_low"
)

// TextFormatter renders results as plain-text content blocks, one
// header block plus one block per result.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format builds the block list for one page of results. An empty page
// yields a single block stating that nothing matched.
func (f *TextFormatter) Format(query string, total int, page []result.Result) []content.Block {
	if total == 0 {
		return []content.Block{
			content.NewText(fmt.Sprintf("No results found for %q.", query)),
		}
	}

	blocks := make([]content.Block, 0, len(page)+1)
	blocks = append(blocks, content.NewText(
		fmt.Sprintf("Found %d result(s) for %q:", total, query),
	))

	for i, r := range page {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s", i+1, r.Name())
		if r.Category() != "" {
			fmt.Fprintf(&b, " [%s]", r.Category())
		}
		fmt.Fprintf(&b, "\n   relevance: %s (%.2f)", relevanceLabel(r.Score()), r.Score())
		if r.Snippet() != "" {
			fmt.Fprintf(&b, "\n   %s", r.Snippet())
		}
		blocks = append(blocks, content.NewText(b.String()))
	}

	return blocks
}

// relevanceLabel buckets a normalized score into a human label.
func relevanceLabel(score float64) string {
	switch {
	case score >= 0.9:
		return relevanceVeryHigh
	case score >= 0.7:
		return relevanceHigh
	case score >= 0.5:
		return relevanceMedium
	case score >= 0.3:
		return relevanceLow
	default:
		return relevanceVeryLow
	}
}
