package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the GET client both remote collaborators share. It waits on
// the per-host limiter before every request and sends one fixed
// User-Agent.
type Client struct {
	hc  *http.Client
	lim *HostLimiter
	ua  string
}

func NewClient(timeout time.Duration, lim *HostLimiter, userAgent string) *Client {
	return &Client{
		hc:  &http.Client{Timeout: timeout},
		lim: lim,
		ua:  userAgent,
	}
}

// Get performs one rate-limited request and hands back the body and
// status. Callers that care about specific statuses use this directly.
func (c *Client) Get(ctx context.Context, u string) ([]byte, int, error) {
	if c.lim != nil {
		if err := c.lim.WaitURL(ctx, u); err != nil {
			return nil, 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, res.StatusCode, nil
}

// GetOK is Get plus the shared status policy: a single one-second backoff
// retry on 429, then anything but 200 is an error.
func (c *Client) GetOK(ctx context.Context, u string) ([]byte, error) {
	body, status, err := c.Get(ctx, u)
	if err == nil && status == http.StatusTooManyRequests {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		body, status, err = c.Get(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("status %d", status)
	}
	return body, nil
}
