package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
	"watchfeed-engine/internal/fetch"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// TMDB pulls /discover/movie and /discover/tv pages sorted by popularity,
// then annotates each title with its subscription availability from the
// watch/providers endpoint.
type TMDB struct {
	BaseURL string
	key     string
	client  *fetch.Client

	provMu    sync.Mutex
	provCache map[string][]string
}

func NewTMDB(apiKey string, lim *fetch.HostLimiter) *TMDB {
	return &TMDB{
		BaseURL:   defaultBaseURL,
		key:       apiKey,
		client:    fetch.NewClient(30*time.Second, lim, "watchfeed/1.0 (+scheduled)"),
		provCache: make(map[string][]string),
	}
}

func (t *TMDB) Name() string { return "tmdb" }

type pageJob struct {
	kind string // "movie" or "tv"
	lang string // "" means no original-language filter
	page int
}

// Discover fans page fetches out in parallel but flattens results in job
// order, so the discovered list is deterministic for a given catalog state.
// Individual page failures degrade; an error comes back only when every
// page failed. When the run includes a subscription list, titles whose
// known providers miss it entirely are dropped here.
func (t *TMDB) Discover(ctx context.Context, opts config.Options) ([]domain.CandidateItem, Meta, error) {
	pages := opts.DiscoverPages
	if pages < 1 {
		pages = 1
	}
	langs := opts.OriginalLangs
	if len(langs) == 0 {
		langs = []string{""}
	}

	var jobs []pageJob
	for _, kind := range []string{"movie", "tv"} {
		for _, lang := range langs {
			for p := 1; p <= pages; p++ {
				jobs = append(jobs, pageJob{kind: kind, lang: lang, page: p})
			}
		}
	}

	results := make([][]domain.CandidateItem, len(jobs))
	var mu sync.Mutex
	errCount := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			items, err := t.fetchPage(gctx, job, opts.Region)
			if err != nil {
				mu.Lock()
				errCount++
				mu.Unlock()
				return nil // best-effort: don't cancel sibling pages
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	meta := Meta{MoviePages: pages, TVPages: pages, PageErrors: errCount}
	seen := map[string]bool{}
	var out []domain.CandidateItem
	for _, batch := range results {
		for _, it := range batch {
			key := it.Type + ":" + strconv.FormatInt(it.TMDBID, 10)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, it)
		}
	}

	if len(out) == 0 && errCount > 0 {
		return nil, meta, fmt.Errorf("tmdb discover: all %d pages failed", errCount)
	}

	meta.ProviderErrors = t.annotateProviders(ctx, out, opts.Region)
	if len(opts.SubsInclude) > 0 {
		out = filterBySubs(out, opts.SubsInclude)
	}

	for _, it := range out {
		if it.Type == domain.KindTVSeries {
			meta.Counts.TV++
		} else {
			meta.Counts.Movie++
		}
	}
	return out, meta, nil
}

func (t *TMDB) fetchPage(ctx context.Context, job pageJob, region string) ([]domain.CandidateItem, error) {
	q := url.Values{}
	q.Set("api_key", t.key)
	q.Set("page", strconv.Itoa(job.page))
	q.Set("sort_by", "popularity.desc")
	q.Set("include_adult", "false")
	if region != "" {
		q.Set("watch_region", region)
	}
	if job.lang != "" {
		q.Set("with_original_language", job.lang)
	}
	u := fmt.Sprintf("%s/discover/%s?%s", t.BaseURL, job.kind, q.Encode())

	body, err := t.client.GetOK(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("tmdb discover page: %w", err)
	}

	var page struct {
		Results []struct {
			ID               int64   `json:"id"`
			Title            string  `json:"title"`
			Name             string  `json:"name"`
			ReleaseDate      string  `json:"release_date"`
			FirstAirDate     string  `json:"first_air_date"`
			VoteAverage      float64 `json:"vote_average"`
			VoteCount        int     `json:"vote_count"`
			Popularity       float64 `json:"popularity"`
			OriginalLanguage string  `json:"original_language"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("tmdb parse discover page: %w", err)
	}

	items := make([]domain.CandidateItem, 0, len(page.Results))
	for _, r := range page.Results {
		it := domain.CandidateItem{
			TMDBID:           r.ID,
			VoteAverage:      r.VoteAverage,
			VoteCount:        r.VoteCount,
			Popularity:       r.Popularity,
			OriginalLanguage: r.OriginalLanguage,
		}
		if job.kind == "tv" {
			it.Type = domain.KindTVSeries
			it.Title = r.Name
			it.Year = yearOf(r.FirstAirDate)
		} else {
			it.Type = domain.KindMovie
			it.Title = r.Title
			it.Year = yearOf(r.ReleaseDate)
		}
		if it.Title == "" || it.TMDBID == 0 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// annotateProviders fills Providers on every item from the per-title
// watch/providers endpoint. Best-effort: a failed lookup leaves Providers
// nil and is only counted. Returns the failure count.
func (t *TMDB) annotateProviders(ctx context.Context, items []domain.CandidateItem, region string) int {
	var mu sync.Mutex
	errCount := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range items {
		i := i
		g.Go(func() error {
			provs, err := t.titleProviders(gctx, items[i].Type, items[i].TMDBID, region)
			if err != nil {
				mu.Lock()
				errCount++
				mu.Unlock()
				return nil
			}
			items[i].Providers = provs
			return nil
		})
	}
	_ = g.Wait()
	return errCount
}

// titleProviders resolves the subscription slugs (flatrate + ad-supported)
// for one title in the given region. Results are cached per title for the
// client's lifetime, so repeat runs in daemon mode don't refetch.
func (t *TMDB) titleProviders(ctx context.Context, kind string, id int64, region string) ([]string, error) {
	path := "movie"
	if kind == domain.KindTVSeries {
		path = "tv"
	}
	cacheKey := path + ":" + strconv.FormatInt(id, 10)

	t.provMu.Lock()
	if cached, ok := t.provCache[cacheKey]; ok {
		t.provMu.Unlock()
		return cached, nil
	}
	t.provMu.Unlock()

	q := url.Values{}
	q.Set("api_key", t.key)
	u := fmt.Sprintf("%s/%s/%d/watch/providers?%s", t.BaseURL, path, id, q.Encode())

	body, err := t.client.GetOK(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("tmdb watch providers %s: %w", cacheKey, err)
	}

	var payload struct {
		Results map[string]struct {
			Flatrate []struct {
				ProviderName string `json:"provider_name"`
			} `json:"flatrate"`
			Ads []struct {
				ProviderName string `json:"provider_name"`
			} `json:"ads"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("tmdb parse watch providers: %w", err)
	}

	set := map[string]bool{}
	if rg, ok := payload.Results[region]; ok {
		for _, p := range rg.Flatrate {
			if s := providerSlug(p.ProviderName); s != "" {
				set[s] = true
			}
		}
		for _, p := range rg.Ads {
			if s := providerSlug(p.ProviderName); s != "" {
				set[s] = true
			}
		}
	}
	slugs := make([]string, 0, len(set))
	for s := range set {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	t.provMu.Lock()
	t.provCache[cacheKey] = slugs
	t.provMu.Unlock()
	return slugs, nil
}

// filterBySubs keeps titles whose providers intersect the subscription
// list. A title whose lookup failed (nil Providers) is kept: unknown
// availability must not silently vanish from a degraded run. A title with
// a successful lookup and no matching provider is dropped.
func filterBySubs(items []domain.CandidateItem, subs []string) []domain.CandidateItem {
	want := map[string]bool{}
	for _, s := range subs {
		if slug := providerSlug(s); slug != "" {
			want[slug] = true
		}
	}
	if len(want) == 0 {
		return items
	}
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		if it.Providers == nil {
			out = append(out, it)
			continue
		}
		for _, p := range it.Providers {
			if want[p] {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// providerSlug normalizes a display name ("Amazon Prime Video") to the
// form the subscription list uses: lowercase, alphanumerics only.
func providerSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
