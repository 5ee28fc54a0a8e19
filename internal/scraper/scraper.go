// Package scraper fetches and parses pages from the Legal Information
// Institute at law.cornell.edu. Fetching is a single attempt per call; retry
// policy belongs to the job queue, and request pacing to the rate limiter.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound marks a 404 response. Callers can treat it as a permanently
// missing page rather than a transient fetch problem.
var ErrNotFound = errors.New("page not found")

// Fetcher retrieves pages over HTTP with a stable identity
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. Relative URLs passed to Fetch are resolved
// against baseURL.
func NewFetcher(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		logger:    logger,
	}
}

// BaseURL returns the configured site root
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// AbsoluteURL resolves href against the site root. Already absolute URLs
// pass through unchanged.
func (f *Fetcher) AbsoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}

	base, err := url.Parse(f.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}

// Page is one fetched document
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetch performs a single GET for rawURL. A 404 returns ErrNotFound; any
// other non-2xx status is an error carrying the status code.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target := f.AbsoluteURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	f.logger.Debug("Fetching page", slog.String("url", target))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		f.logger.Warn("Page not found", slog.String("url", target))
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", target, err)
	}

	return &Page{
		URL:        target,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
