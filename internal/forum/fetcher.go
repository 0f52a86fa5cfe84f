package forum

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves raw page content from the forum source. Both calls apply
// a bounded timeout and perform no retries; retry policy belongs to the
// orchestrator.
type Fetcher interface {
	// FetchListing returns the raw HTML of the recently-active-threads page.
	FetchListing(ctx context.Context) ([]byte, error)
	// FetchThread returns the raw HTML of a thread page.
	FetchThread(ctx context.Context, threadURL string) ([]byte, error)
}

// CollyFetcher fetches pages with a colly collector: domain-scoped, rate
// limited, respectful of robots.txt, one page per call.
type CollyFetcher struct {
	collector  *colly.Collector
	listingURL string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// NewCollyFetcher builds a fetcher rooted at baseURL. listingPath is resolved
// against it (e.g. "/whats-new"). delay spaces out requests to the same host
// per the source's rate expectations; timeout bounds each page fetch. An empty
// userAgent falls back to a browser-like default.
func NewCollyFetcher(baseURL, listingPath, userAgent string, delay, timeout time.Duration) (*CollyFetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid forum base URL %q: %w", baseURL, err)
	}
	listing, err := base.Parse(listingPath)
	if err != nil {
		return nil, fmt.Errorf("invalid listing path %q: %w", listingPath, err)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob: "*" + base.Hostname() + "*",
		Delay:      delay,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{collector: c, listingURL: listing.String()}, nil
}

// FetchListing retrieves the listing page.
func (f *CollyFetcher) FetchListing(ctx context.Context) ([]byte, error) {
	return f.fetch(ctx, f.listingURL)
}

// FetchThread retrieves a single thread page.
func (f *CollyFetcher) FetchThread(ctx context.Context, threadURL string) ([]byte, error) {
	return f.fetch(ctx, threadURL)
}

func (f *CollyFetcher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clone per call so OnResponse/OnError state never crosses requests.
	c := f.collector.Clone()

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	err := c.Visit(pageURL)
	c.Wait()

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, pageURL)
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, pageURL, err)
	case status >= 400:
		return nil, fmt.Errorf("%w: %s: status %d", ErrSourceUnavailable, pageURL, status)
	case len(body) == 0:
		return nil, fmt.Errorf("%w: %s: empty response", ErrSourceUnavailable, pageURL)
	}
	return body, nil
}
