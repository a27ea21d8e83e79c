// Package summary renders the human-readable per-run report.
package summary

import (
	"fmt"
	"strings"
	"time"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
)

// Render produces the summary.md body: run telemetry plus a numbered
// preview of the top picks.
func Render(now time.Time, opts config.Options, w config.Weights, ranked []domain.RankedItem, tel domain.Telemetry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Recommendations — %s\n\n", now.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "*Region*: **%s**  •  *Original langs*: **%s**\n", opts.Region, joinOrDash(opts.OriginalLangs))
	fmt.Fprintf(&b, "*Subscriptions filtered*: **%s**\n\n", joinOrDash(opts.SubsInclude))

	b.WriteString("## Run telemetry\n\n")
	fmt.Fprintf(&b, "- *Discovered*: **%d**\n", tel.Pool)
	fmt.Fprintf(&b, "- *Eligible (unseen)*: **%d**\n", tel.Eligible)
	fmt.Fprintf(&b, "- *Above cut ≥ %.0f*: **%d**\n", w.MatchCut, tel.AboveCut)
	if tel.PoolSizeAfter > 0 || tel.PoolNewThisRun > 0 {
		fmt.Fprintf(&b, "- *Pool growth*: **+%d** (now **%d**)\n", tel.PoolNewThisRun, tel.PoolSizeAfter)
	}
	fmt.Fprintf(&b, "- *Weights*: critic=%.2f audience=%.2f\n\n", w.Critic, w.Audience)

	b.WriteString("## Today’s top picks\n\n")
	if len(ranked) == 0 {
		b.WriteString("_No items passed the filters today._\n")
	} else {
		n := tel.Shown
		if n <= 0 || n > len(ranked) {
			n = len(ranked)
		}
		for i, it := range ranked[:n] {
			year := "—"
			if it.Year != 0 {
				year = fmt.Sprintf("%d", it.Year)
			}
			fmt.Fprintf(&b, "%d. **%s** (%s) — %s\n", i+1, it.Title, year, it.Type)
			fmt.Fprintf(&b, "   *score %.0f  •  %s*\n\n", it.Match, providersOrDash(it.Providers))
		}
	}

	fmt.Fprintf(&b, "---\n_Generated from %d candidates._\n", tel.Eligible)
	return b.String()
}

func joinOrDash(vals []string) string {
	if len(vals) == 0 {
		return "—"
	}
	return strings.Join(vals, ", ")
}

func providersOrDash(provs []string) string {
	if len(provs) == 0 {
		return "—"
	}
	return strings.Join(provs, ", ")
}
