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

// DiscoverCFRTitles reads the CFR index and fans out one section-discovery
// job per title.
type DiscoverCFRTitles struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverCFRTitles) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, "/cfr/text/") {
			continue
		}

		parts := urlPathParts(link.Href)
		if len(parts) != 3 {
			continue
		}
		titleNum, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}

		children = append(children, queue.JobRequest{
			JobType:  TypeDiscoverCFRSections,
			URL:      link.URL,
			Params:   uscodeParams{Title: titleNum, Name: link.Text},
			Priority: priorityDiscovery,
		})
	}

	h.logger.Info("Discovered CFR titles", slog.Int("titles", len(children)))

	return &Result{
		Children: children,
		Summary:  map[string]any{"titles_found": len(children)},
	}, nil
}

// DiscoverCFRSections walks one CFR title or part page, scraping at section
// depth and recursing on shallower part links.
type DiscoverCFRSections struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverCFRSections) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params uscodeParams
	if err := decodeParams(job, &params); err != nil {
		return nil, err
	}

	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("/cfr/text/%d/", params.Title)

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, prefix) {
			continue
		}

		jobType := TypeScrapeCFRSection
		priority := prioritySectionScrape
		if len(urlPathParts(link.Href)) < 4 {
			jobType = TypeDiscoverCFRSections
			priority = prioritySubDiscovery
		}

		children = append(children, queue.JobRequest{
			JobType:  jobType,
			URL:      link.URL,
			Params:   uscodeParams{Title: params.Title, Path: link.Href},
			Priority: priority,
		})
	}

	h.logger.Info("Discovered CFR sections",
		slog.Int("title", params.Title),
		slog.Int("links", len(children)),
	)

	return &Result{
		Children: children,
		Summary:  map[string]any{"title": params.Title},
	}, nil
}

// ScrapeCFRSection archives the text of one CFR section
type ScrapeCFRSection struct {
	fetcher Fetcher
	store   Archive
	logger  *slog.Logger
}

func (h *ScrapeCFRSection) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
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

	// Path layout is /cfr/text/{title}/{part}/{section}, with part and
	// chapter present only on deeper pages.
	parts := urlPathParts(job.URL)
	var section string
	var part, chapter *string
	if len(parts) >= 4 {
		section = parts[len(parts)-1]
	}
	if len(parts) >= 5 {
		part = &parts[len(parts)-2]
	}
	if len(parts) >= 6 {
		chapter = &parts[len(parts)-3]
	}

	err = h.store.SaveCFR(ctx, archive.CFRSection{
		Title:        params.Title,
		Chapter:      chapter,
		Part:         part,
		Section:      section,
		SectionTitle: title,
		TextContent:  text,
		HTMLContent:  html,
		URL:          job.URL,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Archived CFR section",
		slog.Int("title", params.Title),
		slog.String("section", section),
	)

	return &Result{
		Summary: map[string]any{"title": params.Title, "section": section},
	}, nil
}
