package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
)

func TestRenderIncludesTelemetryAndPicks(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	opts := config.Options{Region: "US", OriginalLangs: []string{"en"}}
	w := config.Weights{Critic: 0.25, Audience: 0.75, MatchCut: 58}
	ranked := []domain.RankedItem{
		{Title: "Alpha", Year: 2020, Type: domain.KindMovie, Match: 80, Providers: []string{"netflix"}},
		{Title: "Charlie", Year: 2022, Type: domain.KindTVSeries, Match: 65},
	}
	tel := domain.Telemetry{Pool: 3, Eligible: 2, AboveCut: 2, Shown: 2}

	md := Render(now, opts, w, ranked, tel)

	assert.Contains(t, md, "# Daily Recommendations — 2025-06-01")
	assert.Contains(t, md, "*Region*: **US**")
	assert.Contains(t, md, "*Discovered*: **3**")
	assert.Contains(t, md, "*Eligible (unseen)*: **2**")
	assert.Contains(t, md, "*Above cut ≥ 58*: **2**")
	assert.Contains(t, md, "1. **Alpha** (2020) — movie")
	assert.Contains(t, md, "2. **Charlie** (2022) — tvSeries")
	assert.Contains(t, md, "netflix")
}

func TestRenderEmptyRun(t *testing.T) {
	md := Render(time.Now(), config.Options{Region: "US"}, config.Weights{MatchCut: 58}, nil, domain.Telemetry{})
	assert.Contains(t, md, "_No items passed the filters today._")
	assert.Contains(t, md, "*Subscriptions filtered*: **—**")
}

func TestRenderShownCapsPickList(t *testing.T) {
	ranked := []domain.RankedItem{
		{Title: "Alpha", Match: 80, Type: domain.KindMovie},
		{Title: "Bravo", Match: 70, Type: domain.KindMovie},
		{Title: "Charlie", Match: 60, Type: domain.KindMovie},
	}
	md := Render(time.Now(), config.Options{}, config.Weights{}, ranked, domain.Telemetry{Shown: 2})
	assert.Contains(t, md, "**Bravo**")
	assert.NotContains(t, md, "**Charlie**")
}

func TestRenderPoolGrowthLineOnlyWhenStoreRan(t *testing.T) {
	base := domain.Telemetry{Pool: 3, Eligible: 2}

	md := Render(time.Now(), config.Options{}, config.Weights{}, nil, base)
	assert.NotContains(t, md, "Pool growth")

	base.PoolSizeAfter = 40
	base.PoolNewThisRun = 3
	md = Render(time.Now(), config.Options{}, config.Weights{}, nil, base)
	assert.Contains(t, md, "*Pool growth*: **+3** (now **40**)")
}
