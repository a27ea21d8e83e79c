package domain

// Item kinds as the catalog reports them.
const (
	KindMovie    = "movie"
	KindTVSeries = "tvSeries"
)

// CandidateItem is one title discovered from the catalog provider.
// The discovered list written per run is immutable; ranking works on copies.
type CandidateItem struct {
	TMDBID           int64    `json:"tmdb_id,omitempty"`
	IMDBID           string   `json:"imdb_id,omitempty"`
	Title            string   `json:"title"`
	Year             int      `json:"year,omitempty"`
	Type             string   `json:"type"` // movie/tvSeries
	Seasons          int      `json:"seasons,omitempty"`
	VoteAverage      float64  `json:"vote_average,omitempty"` // TMDB 0..10
	VoteCount        int      `json:"vote_count,omitempty"`
	Popularity       float64  `json:"popularity,omitempty"`
	OriginalLanguage string   `json:"original_language,omitempty"`
	Providers        []string `json:"providers,omitempty"` // subscription slugs

	// Match is set only when an upstream collaborator already scored the
	// item. Nil means the ranker derives a proxy from VoteAverage.
	Match *float64 `json:"match,omitempty"`
}

// RankedItem is the scored, sorted view written to items.enriched.json.
type RankedItem struct {
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	Type      string   `json:"type"`
	Audience  float64  `json:"audience"` // 0..100
	Critic    float64  `json:"critic"`   // 0..100
	Match     float64  `json:"match"`    // 0..100
	Providers []string `json:"providers,omitempty"`
}
