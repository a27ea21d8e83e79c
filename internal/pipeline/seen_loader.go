package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/fetch"
	"watchfeed-engine/internal/seen"
)

// NewSeenLoader returns the standard loader: the local ratings CSV, plus
// the user's public ratings pages when an IMDb user id is configured. The
// public scrape is best-effort — its failure only costs extra signals.
func NewSeenLoader(lim *fetch.HostLimiter) SeenLoader {
	scraper := seen.NewPublicScraper(lim)
	return func(ctx context.Context, opts config.Options, log zerolog.Logger) (*seen.Index, error) {
		idx, err := seen.LoadRatingsCSV(opts.RatingsCSVPath)
		if err != nil {
			return nil, err
		}
		if idx.Len() == 0 {
			log.Warn().Str("path", opts.RatingsCSVPath).Msg("ratings csv missing or empty; continuing without seen filtering")
		}

		if opts.IMDBUserID != "" {
			ids, err := scraper.FetchRatings(ctx, opts.IMDBUserID, opts.PublicMaxPages)
			if err != nil {
				log.Warn().Err(err).Str("user", opts.IMDBUserID).Msg("public ratings scrape failed; using csv signals only")
			}
			for _, id := range ids {
				idx.AddID(id)
			}
		}
		return idx, nil
	}
}
