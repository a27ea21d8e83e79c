// Package fetch holds the HTTP plumbing shared by the catalog client and
// the public-ratings scraper: per-host rate limiting and a small GET
// client with the common header and 429 handling.
package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits per hostname so one busy endpoint cannot starve
// another (api.themoviedb.org vs www.imdb.com).
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(reqPerSec),
		burst:    burst,
	}
}

// host returns the limiter for h, creating it on first sight. Unparseable
// URLs share one bucket under "_".
func (hl *HostLimiter) host(h string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	if lim, ok := hl.limiters[h]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.perSec, hl.burst)
	hl.limiters[h] = lim
	return lim
}

// WaitURL blocks until the host of raw may be hit again.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.host("_").Wait(ctx)
	}
	return hl.host(u.Host).Wait(ctx)
}
