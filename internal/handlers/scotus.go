package handlers

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

var (
	citationPattern = regexp.MustCompile(`\d+\s+U\.S\.?\s+\d+`)
	docketPattern   = regexp.MustCompile(`No\.\s*[\d-]+`)
	caseYearPattern = regexp.MustCompile(`/((?:19|20)\d{2})/`)
)

// DiscoverSupremeCourtCases fans out a scrape job for every case link on a
// Supreme Court listing page.
type DiscoverSupremeCourtCases struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverSupremeCourtCases) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, "/supremecourt/text/") {
			continue
		}

		children = append(children, queue.JobRequest{
			JobType:  TypeScrapeSupremeCourtCase,
			URL:      link.URL,
			Priority: priorityCaseScrape,
		})
	}

	h.logger.Info("Discovered Supreme Court cases",
		slog.String("listing", job.URL),
		slog.Int("cases", len(children)),
	)

	return &Result{
		Children: children,
		Summary:  map[string]any{"cases_found": len(children)},
	}, nil
}

// ScrapeSupremeCourtCase archives one opinion, pulling the citation and
// docket number out of the page text and the decision year out of the URL.
type ScrapeSupremeCourtCase struct {
	fetcher Fetcher
	store   Archive
	logger  *slog.Logger
}

func (h *ScrapeSupremeCourtCase) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	caseName := doc.Title()
	if caseName == "" {
		caseName = "Unknown Case"
	}

	metadata := doc.Metadata()
	pageText := doc.Text()

	var citation, docket *string
	if m := citationPattern.FindString(pageText); m != "" {
		metadata["citation"] = m
		citation = &m
	}
	if m := docketPattern.FindString(pageText); m != "" {
		metadata["docket_number"] = m
		docket = &m
	}

	var year *int
	if m := caseYearPattern.FindStringSubmatch(job.URL); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			metadata["year"] = y
			year = &y
		}
	}

	text, html := doc.Content()

	err = h.store.SaveSupremeCourtCase(ctx, archive.SupremeCourtCase{
		CaseName:     caseName,
		Citation:     citation,
		DocketNumber: docket,
		Year:         year,
		TextContent:  text,
		HTMLContent:  html,
		URL:          job.URL,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Archived Supreme Court case",
		slog.String("case_name", caseName),
	)

	return &Result{
		Summary: map[string]any{"case_name": caseName},
	}, nil
}
