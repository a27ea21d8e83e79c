package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"watchfeed-engine/internal/catalog"
	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/fetch"
	"watchfeed-engine/internal/logging"
	"watchfeed-engine/internal/pipeline"
	"watchfeed-engine/internal/scheduler"
	"watchfeed-engine/internal/secrets"
	"watchfeed-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the scheduler can pass one),
	// else a local folder.
	defaultData := os.Getenv("WATCHFEED_DATA_DIR")
	if defaultData == "" {
		defaultData = "data"
	}

	var (
		dataDir   = flag.String("data", defaultData, "data directory (ratings, pool db, run output)")
		every     = flag.Duration("every", 0, "rerun interval; 0 runs once and exits")
		ratings   = flag.String("ratings", "", "override path to the IMDb ratings CSV export")
		imdbUser  = flag.String("imdb-user", "", "override IMDb user id for public seen signals")
		setAPIKey = flag.String("set-api-key", "", "store the TMDB API key in the OS keychain and exit")
	)
	flag.Parse()

	log := logging.Console()

	if *setAPIKey != "" {
		if err := secrets.SetAPIKey(*setAPIKey); err != nil {
			log.Fatal().Err(err).Msg("could not store API key")
		}
		log.Info().Msg("API key stored in keychain")
		return
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("data", *dataDir).Msg("data dir unavailable")
	}

	// The pointer protocol assumes non-overlapping invocations; the lock
	// makes that assumption real when a cron entry fires early.
	lock := flock.New(filepath.Join(*dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatal().Err(err).Msg("lock error")
	}
	if !locked {
		log.Info().Msg("another invocation holds the lock; exiting")
		return
	}
	defer func() { _ = lock.Unlock() }()

	opts := config.FromEnv()
	if *ratings != "" {
		opts.RatingsCSVPath = *ratings
	}
	if *imdbUser != "" {
		opts.IMDBUserID = *imdbUser
	}

	weightsPath := filepath.Join(*dataDir, "weights.yml")
	if err := config.WriteDefaultWeights(weightsPath); err != nil {
		log.Warn().Err(err).Msg("could not seed weights file")
	}
	weights, err := config.LoadWeights(weightsPath)
	if err != nil {
		log.Warn().Err(err).Msg("weights load failed; using defaults")
	}

	lim := fetch.NewHostLimiter(1.0, 2)

	var provider catalog.Provider
	if key, err := secrets.APIKey(); err != nil {
		log.Warn().Err(err).Msg("catalog disabled for this run")
	} else {
		provider = catalog.NewTMDB(key, lim)
	}

	var db *store.DB
	if db, err = store.Open(filepath.Join(*dataDir, "pool.db")); err != nil {
		log.Warn().Err(err).Msg("pool store unavailable; continuing without it")
		db = nil
	} else {
		defer db.Close()
	}

	p := pipeline.New(pipeline.Deps{
		Provider: provider,
		Seen:     pipeline.NewSeenLoader(lim),
		Store:    db,
		Console:  os.Stderr,
	})

	outRoot := filepath.Join(*dataDir, "out")
	runOnce := func(ctx context.Context) error {
		res, err := p.Run(ctx, outRoot, opts, weights)
		if err != nil {
			return err
		}
		log.Info().Str("run_dir", res.RunDir).Int("degraded_stages", len(res.Degraded)).Msg("invocation done")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *every > 0 {
		log.Info().Dur("every", *every).Msg("daemon mode")
		scheduler.Every(ctx, *every, "recommend", log, runOnce)
		return
	}

	if err := runOnce(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
