package index

import (
	"github.com/helpdex/helpdex/internal/domain/search/result"
)

// fuseMax merges per-tier hit lists by document id, keeping the best
// weighted score for documents that several tiers agree on. The output
// is sorted and deduplicated; downstream pagination relies on that.
func fuseMax(groups ...[]result.Result) []result.Result {
	merged := make(map[string]result.Result)
	for _, group := range groups {
		for _, r := range group {
			if cur, ok := merged[r.ID()]; !ok || r.Score() > cur.Score() {
				merged[r.ID()] = r
			}
		}
	}

	out := make([]result.Result, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	result.Sort(out)
	return out
}
