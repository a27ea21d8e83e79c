// Package pipeline sequences one full recommendation run: allocate a run
// directory, discover, filter, rank, persist artifacts, repoint latest.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"watchfeed-engine/internal/catalog"
	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
	"watchfeed-engine/internal/feed"
	"watchfeed-engine/internal/logging"
	"watchfeed-engine/internal/rank"
	"watchfeed-engine/internal/runfiles"
	"watchfeed-engine/internal/seen"
	"watchfeed-engine/internal/store"
	"watchfeed-engine/internal/summary"
)

// SeenLoader builds the per-run seen index. Implementations are rebuilt
// from source each invocation; no cross-run cache.
type SeenLoader func(ctx context.Context, opts config.Options, log zerolog.Logger) (*seen.Index, error)

// Deps are the collaborators a run needs. Provider is required; the rest
// default sensibly.
type Deps struct {
	Provider catalog.Provider
	Seen     SeenLoader
	Scorer   rank.Scorer
	Store    *store.DB // nil disables the persistent pool
	Console  io.Writer
	Now      func() time.Time
	TopN     int
}

// StageResult records a stage that failed and was degraded rather than
// aborting the run.
type StageResult struct {
	Stage string
	Err   error
}

type RunResult struct {
	RunDir    string
	Telemetry domain.Telemetry
	Degraded  []StageResult
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TopN <= 0 {
		deps.TopN = feed.DefaultTopN
	}
	return &Pipeline{deps: deps}
}

// Run executes one invocation. Only two failures are fatal: run-directory
// allocation and the latest-pointer copy fallback. Everything else logs,
// degrades, and the run still produces a directory, a log, and a fresh
// latest pointer.
func (p *Pipeline) Run(ctx context.Context, outRoot string, opts config.Options, w config.Weights) (RunResult, error) {
	var res RunResult

	runDir, err := runfiles.Allocate(outRoot, p.deps.Now())
	if err != nil {
		return res, err // nothing downstream has anywhere to write
	}
	res.RunDir = runDir

	log, closeLog := logging.NewRunLogger(runDir, p.deps.Console)
	defer closeLog()
	log.Info().Str("run_dir", runDir).Msg("run started")

	degrade := func(stage string, err error) {
		res.Degraded = append(res.Degraded, StageResult{Stage: stage, Err: err})
		log.Warn().Err(err).Str("stage", stage).Msg("stage failed; continuing degraded")
	}

	if err := runfiles.WriteJSON(filepath.Join(runDir, runfiles.OptionsSanityName), opts); err != nil {
		log.Warn().Err(err).Msg("options snapshot not written")
	}

	// Discover. Failure means an empty pool, not an aborted run.
	var items []domain.CandidateItem
	var meta catalog.Meta
	fetchOK := false
	if p.deps.Provider == nil {
		degrade("catalog", fmt.Errorf("no catalog provider configured"))
	} else if items, meta, err = p.deps.Provider.Discover(ctx, opts); err != nil {
		degrade("catalog", err)
		items = nil
	} else {
		fetchOK = true
	}
	log.Info().Int("pool", len(items)).Int("movie", meta.Counts.Movie).Int("tv", meta.Counts.TV).Int("provider_errors", meta.ProviderErrors).Msg("catalog fetched")

	// The raw discovered set is persisted unconditionally, empty included.
	discovered := items
	if discovered == nil {
		discovered = []domain.CandidateItem{}
	}
	if err := runfiles.WriteJSON(filepath.Join(runDir, runfiles.DiscoveredName), discovered); err != nil {
		degrade("discovered-artifact", err)
	}

	// Seen index; on failure nothing is excluded.
	var idx *seen.Index
	if p.deps.Seen != nil {
		if idx, err = p.deps.Seen(ctx, opts, log); err != nil {
			degrade("seen-index", err)
			idx = nil
		}
	}
	if idx != nil {
		log.Info().Int("signals", idx.Len()).Msg("seen index built")
	}

	eligible := seen.Filter(items, idx)
	log.Info().Int("kept", len(eligible)).Int("dropped", len(items)-len(eligible)).Msg("unseen filter applied")

	scorer := p.deps.Scorer
	if scorer == nil {
		scorer = rank.WeightScorer{W: w}
	}
	ranked := rank.Rank(eligible, scorer)

	res.Telemetry = domain.Telemetry{
		Pool:     len(items),
		Eligible: len(eligible),
		AboveCut: rank.AboveCut(ranked, w.MatchCut),
		Shown:    min(p.deps.TopN, len(ranked)),
		Weights:  domain.WeightsSnapshot{Critic: w.Critic, Audience: w.Audience},
		PagePlan: domain.PagePlan{
			MoviePages: meta.MoviePages,
			TVPages:    meta.TVPages,
			Region:     opts.Region,
			Langs:      opts.OriginalLangs,
		},
	}
	log.Info().Int("ranked", len(ranked)).Int("above_cut", res.Telemetry.AboveCut).Float64("cut", w.MatchCut).Msg("scoring done")

	// Pool store is a cross-run nicety; its failure never blocks the run.
	if p.deps.Store != nil && fetchOK {
		if stats, err := p.deps.Store.MergePool(ctx, items); err != nil {
			degrade("pool-store", err)
		} else {
			res.Telemetry.PoolSizeBefore = stats.SizeBefore
			res.Telemetry.PoolSizeAfter = stats.SizeAfter
			res.Telemetry.PoolNewThisRun = stats.Added
		}
	}

	// Enriched + feed artifacts exist only for runs whose ranking input was
	// real; a failed fetch leaves no stale ranked files behind.
	if fetchOK {
		f := feed.Compose(ranked, res.Telemetry, w, p.deps.TopN)
		if err := runfiles.WriteJSON(filepath.Join(runDir, runfiles.EnrichedName), ranked); err != nil {
			degrade("enriched-artifact", err)
		}
		if err := runfiles.WriteJSON(filepath.Join(runDir, runfiles.FeedName), f); err != nil {
			degrade("feed-artifact", err)
		}
	}

	md := summary.Render(p.deps.Now(), opts, w, ranked, res.Telemetry)
	if err := runfiles.WriteText(filepath.Join(runDir, runfiles.SummaryName), md); err != nil {
		degrade("summary-artifact", err)
	}

	// The pointer update always runs: a run that discovered nothing still
	// leaves a complete, inspectable run directory behind latest.
	if err := runfiles.WriteLastRun(outRoot, runDir); err != nil {
		degrade("last-run-pointer", err)
	}
	log.Info().Msg("run finishing; updating latest")
	if err := runfiles.UpdateLatest(outRoot, runDir, log); err != nil {
		return res, fmt.Errorf("update latest pointer: %w", err)
	}

	log.Info().Int("eligible", res.Telemetry.Eligible).Int("above_cut", res.Telemetry.AboveCut).Msg("run complete")
	return res, nil
}
