package seen

import "watchfeed-engine/internal/domain"

// Filter drops candidates the index knows about, by id first and tolerant
// title+year second. A nil or empty index keeps everything.
func Filter(items []domain.CandidateItem, idx *Index) []domain.CandidateItem {
	if idx == nil || idx.Len() == 0 {
		return items
	}
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		if idx.HasID(it.IMDBID) {
			continue
		}
		if idx.HasTitle(it.Type, it.Title, it.Year) {
			continue
		}
		out = append(out, it)
	}
	return out
}
