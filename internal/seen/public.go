package seen

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"watchfeed-engine/internal/fetch"
)

const imdbBase = "https://www.imdb.com"

var titleHrefRe = regexp.MustCompile(`/title/(tt\d{7,8})/`)

// PublicScraper collects tt ids from a user's public ratings pages.
type PublicScraper struct {
	BaseURL string
	client  *fetch.Client
}

func NewPublicScraper(lim *fetch.HostLimiter) *PublicScraper {
	return &PublicScraper{
		BaseURL: imdbBase,
		client:  fetch.NewClient(20*time.Second, lim, "Mozilla/5.0 (compatible; watchfeed/1.0)"),
	}
}

// FetchRatings pages through /user/<id>/ratings collecting title ids.
// Pagination advances by 100 until a page adds nothing or maxPages is hit.
func (s *PublicScraper) FetchRatings(ctx context.Context, userID string, maxPages int) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	if maxPages < 1 {
		maxPages = 1
	}

	found := map[string]bool{}
	start := 1
	for page := 0; page < maxPages; page++ {
		u := fmt.Sprintf("%s/user/%s/ratings?sort=ratings_date,desc&start=%s",
			s.BaseURL, userID, strconv.Itoa(start))
		ids, err := s.fetchPage(ctx, u)
		if err != nil {
			if len(found) > 0 {
				break // keep what we have
			}
			return nil, err
		}
		added := 0
		for _, id := range ids {
			if !found[id] {
				found[id] = true
				added++
			}
		}
		if added == 0 {
			break
		}
		start += 100
	}

	out := make([]string, 0, len(found))
	for id := range found {
		out = append(out, id)
	}
	return out, nil
}

func (s *PublicScraper) fetchPage(ctx context.Context, u string) ([]string, error) {
	body, err := s.client.GetOK(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ratings page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ratings page parse: %w", err)
	}

	var ids []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if m := titleHrefRe.FindStringSubmatch(href); m != nil {
			ids = append(ids, m[1])
		}
	})
	return ids, nil
}
