// Package feed composes the consumer-facing assistant feed document.
package feed

import (
	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
)

const disclaimer = "This product uses the TMDB and OMDb APIs but is not endorsed or certified by them."

// DefaultTopN is how many picks the feed surfaces.
const DefaultTopN = 10

type Feed struct {
	Version    int              `json:"version"`
	Disclaimer string           `json:"disclaimer"`
	Weights    feedWeights      `json:"weights"`
	Telemetry  domain.Telemetry `json:"telemetry"`
	Top        []Entry          `json:"top10"`
}

type feedWeights struct {
	Critic              float64 `json:"critic"`
	Audience            float64 `json:"audience"`
	CommitmentCostScale float64 `json:"commitment_cost_scale"`
}

type Entry struct {
	Rank      int      `json:"rank"`
	Match     float64  `json:"match"`
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	Type      string   `json:"type"`
	Providers []string `json:"providers,omitempty"`
}

// Compose builds the feed from an already-ranked list.
func Compose(ranked []domain.RankedItem, tel domain.Telemetry, w config.Weights, topN int) Feed {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}
	top := make([]Entry, 0, topN)
	for i, it := range ranked[:topN] {
		top = append(top, Entry{
			Rank:      i + 1,
			Match:     it.Match,
			Title:     it.Title,
			Year:      it.Year,
			Type:      it.Type,
			Providers: it.Providers,
		})
	}
	return Feed{
		Version:    1,
		Disclaimer: disclaimer,
		Weights: feedWeights{
			Critic:              w.Critic,
			Audience:            w.Audience,
			CommitmentCostScale: w.CommitmentCostScale,
		},
		Telemetry: tel,
		Top:       top,
	}
}
