// Package handlers implements the job handlers for each job type in the
// archive. Discovery handlers fan out child jobs for the worker to enqueue
// before the parent completes; scrape handlers persist page content and
// never fan out.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
	"github.com/lawvault/lawvault/internal/scraper"
)

// Job type names are stable identifiers stored with each queued job.
const (
	TypeDiscoverUSCodeTitles        = "discover_uscode_titles"
	TypeDiscoverUSCodeSections      = "discover_uscode_sections"
	TypeScrapeUSCodeSection         = "scrape_uscode_section"
	TypeDiscoverCFRTitles           = "discover_cfr_titles"
	TypeDiscoverCFRSections         = "discover_cfr_sections"
	TypeScrapeCFRSection            = "scrape_cfr_section"
	TypeDiscoverSupremeCourtCases   = "discover_scotus_cases"
	TypeScrapeSupremeCourtCase      = "scrape_scotus_case"
	TypeDiscoverConstitution        = "discover_constitution"
	TypeScrapeConstitutionSection   = "scrape_constitution_section"
	TypeDiscoverFederalRules        = "discover_federal_rules"
	TypeDiscoverFederalRuleSections = "discover_federal_rule_sections"
	TypeScrapeFederalRule           = "scrape_federal_rule"
)

// Priorities order the queue; lower numbers are claimed first. Discovery
// runs ahead of scraping so the work frontier keeps growing while section
// downloads drain slowly behind the rate limiter.
const (
	prioritySeed          = 1 // top-level discovery seeds
	priorityCaseListing   = 2 // Supreme Court case index pages
	priorityDiscovery     = 3 // per-title discovery, Constitution sections
	prioritySubDiscovery  = 4 // chapter and subchapter drill-down
	priorityCaseScrape    = 5 // case and individual rule scrapes
	prioritySectionScrape = 6 // US Code and CFR section scrapes
)

// Result is what a handler produces on success. Children are enqueued by
// the worker before the job is marked completed, so a crash in between
// re-runs the parent and the idempotent enqueue absorbs the duplicates.
type Result struct {
	Children []queue.JobRequest
	Summary  map[string]any
}

// Handler processes one claimed job
type Handler interface {
	Handle(ctx context.Context, job *queue.Job) (*Result, error)
}

// Fetcher retrieves pages from the archive source
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
	BaseURL() string
}

// Archive persists scraped documents
type Archive interface {
	SaveUSCode(ctx context.Context, section archive.USCodeSection) error
	SaveCFR(ctx context.Context, section archive.CFRSection) error
	SaveSupremeCourtCase(ctx context.Context, courtCase archive.SupremeCourtCase) error
	SaveConstitution(ctx context.Context, section archive.ConstitutionSection) error
	SaveFederalRule(ctx context.Context, rule archive.FederalRule) error
}

// Registry maps job types to their handlers
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry wires up a handler for every known job type
func NewRegistry(fetcher Fetcher, store Archive, logger *slog.Logger) *Registry {
	return &Registry{
		handlers: map[string]Handler{
			TypeDiscoverUSCodeTitles:        &DiscoverUSCodeTitles{fetcher: fetcher, logger: logger},
			TypeDiscoverUSCodeSections:      &DiscoverUSCodeSections{fetcher: fetcher, logger: logger},
			TypeScrapeUSCodeSection:         &ScrapeUSCodeSection{fetcher: fetcher, store: store, logger: logger},
			TypeDiscoverCFRTitles:           &DiscoverCFRTitles{fetcher: fetcher, logger: logger},
			TypeDiscoverCFRSections:         &DiscoverCFRSections{fetcher: fetcher, logger: logger},
			TypeScrapeCFRSection:            &ScrapeCFRSection{fetcher: fetcher, store: store, logger: logger},
			TypeDiscoverSupremeCourtCases:   &DiscoverSupremeCourtCases{fetcher: fetcher, logger: logger},
			TypeScrapeSupremeCourtCase:      &ScrapeSupremeCourtCase{fetcher: fetcher, store: store, logger: logger},
			TypeDiscoverConstitution:        &DiscoverConstitution{fetcher: fetcher, logger: logger},
			TypeScrapeConstitutionSection:   &ScrapeConstitutionSection{fetcher: fetcher, store: store, logger: logger},
			TypeDiscoverFederalRules:        &DiscoverFederalRules{fetcher: fetcher, logger: logger},
			TypeDiscoverFederalRuleSections: &DiscoverFederalRuleSections{fetcher: fetcher, logger: logger},
			TypeScrapeFederalRule:           &ScrapeFederalRule{fetcher: fetcher, store: store, logger: logger},
		},
	}
}

// Get returns the handler for a job type
func (r *Registry) Get(jobType string) (Handler, bool) {
	handler, ok := r.handlers[jobType]
	return handler, ok
}

func decodeParams(job *queue.Job, dest any) error {
	if len(job.Params) == 0 {
		return nil
	}

	if err := json.Unmarshal(job.Params, dest); err != nil {
		return fmt.Errorf("invalid params for job %d: %w", job.ID, err)
	}

	return nil
}

func fetchDocument(ctx context.Context, fetcher Fetcher, pageURL string) (*scraper.Document, error) {
	page, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return scraper.Parse(page)
}

// urlPathParts splits a URL's path into segments, so both
// "/uscode/text/17/107" and its absolute form yield
// ["uscode", "text", "17", "107"].
func urlPathParts(rawURL string) []string {
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		path = parsed.Path
	}

	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}
