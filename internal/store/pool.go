package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"watchfeed-engine/internal/domain"
)

// PoolStats summarizes one merge for the run telemetry.
type PoolStats struct {
	SizeBefore int
	SizeAfter  int
	Added      int
}

// poolKey mirrors the accumulated-pool keying: imdb id when known, else
// the catalog id.
func poolKey(it domain.CandidateItem) string {
	if id := strings.TrimSpace(it.IMDBID); id != "" {
		return "imdb:" + id
	}
	if it.TMDBID != 0 {
		return "tmdb:" + strconv.FormatInt(it.TMDBID, 10)
	}
	return ""
}

// MergePool folds this run's discoveries into the accumulated pool. Merge
// policy: basics updated from the latest crawl, vote kept at the max ever
// seen, providers unioned.
func (d *DB) MergePool(ctx context.Context, items []domain.CandidateItem) (PoolStats, error) {
	var stats PoolStats
	var err error
	if stats.SizeBefore, err = d.PoolSize(ctx); err != nil {
		return stats, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, it := range items {
		key := poolKey(it)
		if key == "" {
			continue
		}
		added, err := d.mergeOne(ctx, key, it, now)
		if err != nil {
			return stats, fmt.Errorf("merge pool item %s: %w", key, err)
		}
		if added {
			stats.Added++
		}
	}

	if stats.SizeAfter, err = d.PoolSize(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (d *DB) mergeOne(ctx context.Context, key string, it domain.CandidateItem, now string) (added bool, err error) {
	var (
		prevVote      float64
		prevProviders string
		firstSeen     string
	)
	err = d.Pool.QueryRowContext(ctx,
		`SELECT vote_average, providers, first_seen FROM pool WHERE key = ?;`, key).
		Scan(&prevVote, &prevProviders, &firstSeen)
	switch {
	case err == sql.ErrNoRows:
		added = true
		firstSeen = now
	case err != nil:
		return false, err
	}

	vote := it.VoteAverage
	if prevVote > vote {
		vote = prevVote
	}
	providers := unionProviders(prevProviders, it.Providers)

	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO pool (key, tmdb_id, imdb_id, title, year, type, seasons, vote_average, providers, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  tmdb_id = excluded.tmdb_id,
  imdb_id = excluded.imdb_id,
  title = excluded.title,
  year = excluded.year,
  type = excluded.type,
  seasons = excluded.seasons,
  vote_average = excluded.vote_average,
  providers = excluded.providers,
  last_seen = excluded.last_seen;`,
		key, it.TMDBID, it.IMDBID, it.Title, it.Year, it.Type, it.Seasons,
		vote, providers, firstSeen, now)
	return added, err
}

func (d *DB) PoolSize(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM pool;`).Scan(&n)
	return n, err
}

func unionProviders(prevJSON string, cur []string) string {
	set := map[string]bool{}
	var prev []string
	_ = json.Unmarshal([]byte(prevJSON), &prev)
	for _, p := range prev {
		set[p] = true
	}
	for _, p := range cur {
		set[p] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	b, _ := json.Marshal(out)
	return string(b)
}
