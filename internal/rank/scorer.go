package rank

import (
	"math"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
)

type Scorer interface {
	Score(item domain.CandidateItem) domain.RankedItem
}

// WeightScorer computes the 0..100 match score from the configured
// weights. An item that already carries an explicit match keeps it; one
// without falls back to the audience proxy derived from the provider vote,
// so sorting never trips over a missing field.
type WeightScorer struct {
	W config.Weights
}

func (s WeightScorer) Score(it domain.CandidateItem) domain.RankedItem {
	audience := clamp01(it.VoteAverage / 10.0)
	critic := 0.0 // no critic signal in the discover payload

	var match float64
	if it.Match != nil {
		match = *it.Match
	} else {
		base := s.W.Audience*audience + s.W.Critic*critic
		match = round1(100.0 * math.Max(0, base-s.penalty(it)))
	}

	return domain.RankedItem{
		Title:     it.Title,
		Year:      it.Year,
		Type:      it.Type,
		Audience:  round1(audience * 100),
		Critic:    round1(critic * 100),
		Match:     match,
		Providers: it.Providers,
	}
}

// penalty charges series for the time commitment they ask for, scaling
// with season count.
func (s WeightScorer) penalty(it domain.CandidateItem) float64 {
	if it.Type != domain.KindTVSeries {
		return 0
	}
	switch {
	case it.Seasons >= 3:
		return 0.09 * s.W.CommitmentCostScale
	case it.Seasons == 2:
		return 0.04 * s.W.CommitmentCostScale
	default:
		return 0.02 * s.W.CommitmentCostScale
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
