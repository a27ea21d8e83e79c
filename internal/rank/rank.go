package rank

import (
	"sort"

	"watchfeed-engine/internal/domain"
)

// Rank scores every candidate and sorts descending by match. The sort is
// stable: equal scores keep their discovery order, which is the only
// tie-break. The input slice is never mutated.
func Rank(items []domain.CandidateItem, scorer Scorer) []domain.RankedItem {
	ranked := make([]domain.RankedItem, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, scorer.Score(it))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Match > ranked[j].Match
	})
	return ranked
}

// AboveCut counts items at or above the match threshold. Telemetry only.
func AboveCut(ranked []domain.RankedItem, cut float64) int {
	n := 0
	for _, r := range ranked {
		if r.Match >= cut {
			n++
		}
	}
	return n
}
