package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

// uscodeParams carries title context between discovery levels
type uscodeParams struct {
	Title int    `json:"title"`
	Name  string `json:"name,omitempty"`
	Path  string `json:"path,omitempty"`
}

// DiscoverUSCodeTitles reads the US Code index and fans out one
// section-discovery job per title.
type DiscoverUSCodeTitles struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverUSCodeTitles) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, "/uscode/text/") {
			continue
		}

		// Title pages sit exactly one level under the index.
		parts := urlPathParts(link.Href)
		if len(parts) != 3 {
			continue
		}
		titleNum, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}

		children = append(children, queue.JobRequest{
			JobType:  TypeDiscoverUSCodeSections,
			URL:      link.URL,
			Params:   uscodeParams{Title: titleNum, Name: link.Text},
			Priority: priorityDiscovery,
		})
	}

	h.logger.Info("Discovered US Code titles", slog.Int("titles", len(children)))

	return &Result{
		Children: children,
		Summary:  map[string]any{"titles_found": len(children)},
	}, nil
}

// DiscoverUSCodeSections walks one US Code title or chapter page.
// Section-depth links become scrape jobs; shallower links recurse into
// another discovery pass.
type DiscoverUSCodeSections struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverUSCodeSections) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params uscodeParams
	if err := decodeParams(job, &params); err != nil {
		return nil, err
	}

	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("/uscode/text/%d/", params.Title)

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, prefix) {
			continue
		}

		jobType := TypeScrapeUSCodeSection
		priority := prioritySectionScrape
		if len(urlPathParts(link.Href)) < 4 {
			jobType = TypeDiscoverUSCodeSections
			priority = prioritySubDiscovery
		}

		children = append(children, queue.JobRequest{
			JobType:  jobType,
			URL:      link.URL,
			Params:   uscodeParams{Title: params.Title, Path: link.Href},
			Priority: priority,
		})
	}

	h.logger.Info("Discovered US Code sections",
		slog.Int("title", params.Title),
		slog.Int("links", len(children)),
	)

	return &Result{
		Children: children,
		Summary:  map[string]any{"title": params.Title},
	}, nil
}

// ScrapeUSCodeSection archives the text of one US Code section
type ScrapeUSCodeSection struct {
	fetcher Fetcher
	store   Archive
	logger  *slog.Logger
}

func (h *ScrapeUSCodeSection) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params uscodeParams
	if err := decodeParams(job, &params); err != nil {
		return nil, err
	}

	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	title := doc.Title()
	if title == "" {
		title = "Untitled"
	}

	text, html := doc.Content()

	parts := urlPathParts(job.URL)
	var section string
	var chapter *string
	if len(parts) > 0 {
		section = parts[len(parts)-1]
	}
	if len(parts) > 1 {
		chapter = &parts[len(parts)-2]
	}

	err = h.store.SaveUSCode(ctx, archive.USCodeSection{
		Title:        params.Title,
		Chapter:      chapter,
		Section:      section,
		SectionTitle: title,
		TextContent:  text,
		HTMLContent:  html,
		URL:          job.URL,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Archived US Code section",
		slog.Int("title", params.Title),
		slog.String("section", section),
	)

	return &Result{
		Summary: map[string]any{"title": params.Title, "section": section},
	}, nil
}
