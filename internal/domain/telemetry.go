package domain

// Telemetry captures per-run counts for the summary and the feed.
type Telemetry struct {
	Pool     int `json:"pool"`
	Eligible int `json:"eligible"`
	AboveCut int `json:"above_cut"`
	Shown    int `json:"shown"`

	PoolSizeBefore int `json:"pool_size_before,omitempty"`
	PoolSizeAfter  int `json:"pool_size_after,omitempty"`
	PoolNewThisRun int `json:"pool_new_this_run,omitempty"`

	Weights  WeightsSnapshot `json:"weights"`
	PagePlan PagePlan        `json:"page_plan"`
}

type WeightsSnapshot struct {
	Critic   float64 `json:"critic"`
	Audience float64 `json:"audience"`
}

// PagePlan records what the discover stage actually fetched.
type PagePlan struct {
	MoviePages int      `json:"movie_pages"`
	TVPages    int      `json:"tv_pages"`
	Region     string   `json:"region"`
	Langs      []string `json:"langs,omitempty"`
}
