package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

// constitutionParams records whether a child page is an article or an
// amendment.
type constitutionParams struct {
	SectionType string `json:"section_type"`
}

// DiscoverConstitution fans out a scrape job for every article and
// amendment linked from the Constitution index. Links into the annotated
// edition are skipped; only the plain text pages are archived.
type DiscoverConstitution struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverConstitution) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, "/constitution/article") &&
			!strings.Contains(link.Href, "/constitution/amendment") {
			continue
		}
		if strings.Contains(link.Href, "constitution-conan") {
			continue
		}

		sectionType := "amendment"
		if strings.Contains(link.Href, "/article") {
			sectionType = "article"
		}

		children = append(children, queue.JobRequest{
			JobType:  TypeScrapeConstitutionSection,
			URL:      link.URL,
			Params:   constitutionParams{SectionType: sectionType},
			Priority: priorityDiscovery,
		})
	}

	h.logger.Info("Discovered Constitution sections", slog.Int("sections", len(children)))

	return &Result{
		Children: children,
		Summary:  map[string]any{"sections_found": len(children)},
	}, nil
}

// ScrapeConstitutionSection archives one article or amendment
type ScrapeConstitutionSection struct {
	fetcher Fetcher
	store   Archive
	logger  *slog.Logger
}

func (h *ScrapeConstitutionSection) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params constitutionParams
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

	// The slug is the last path segment: articlei, amendmentxiv, ...
	var sectionID string
	if parts := urlPathParts(job.URL); len(parts) > 0 {
		sectionID = parts[len(parts)-1]
	}

	var article, section *string
	switch {
	case strings.Contains(strings.ToLower(sectionID), "article"):
		article = &sectionID
	case strings.Contains(strings.ToLower(sectionID), "amendment"):
		section = &sectionID
	}

	err = h.store.SaveConstitution(ctx, archive.ConstitutionSection{
		Article:     article,
		Section:     section,
		Title:       title,
		TextContent: text,
		HTMLContent: html,
		URL:         job.URL,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Archived Constitution section",
		slog.String("section_type", params.SectionType),
		slog.String("title", title),
	)

	return &Result{
		Summary: map[string]any{"title": title},
	}, nil
}
