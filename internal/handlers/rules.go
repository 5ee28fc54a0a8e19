package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

var ruleNumberPattern = regexp.MustCompile(`/rule_([\d.]+)`)

// ruleSets are the procedure and evidence collections published by LII.
// The index page lists many other materials, so the sets are pinned here
// rather than discovered.
var ruleSets = []struct {
	Code string
	Name string
}{
	{"frap", "Federal Rules of Appellate Procedure"},
	{"frcp", "Federal Rules of Civil Procedure"},
	{"frcrmp", "Federal Rules of Criminal Procedure"},
	{"fre", "Federal Rules of Evidence"},
	{"frbp", "Federal Rules of Bankruptcy Procedure"},
	{"supct", "Supreme Court Rules"},
}

// ruleSetParams identifies a rule collection being discovered
type ruleSetParams struct {
	RuleSet string `json:"rule_set"`
	Name    string `json:"name,omitempty"`
}

// ruleParams identifies one rule being scraped
type ruleParams struct {
	RuleSet     string `json:"rule_set"`
	RuleNumber  string `json:"rule_number,omitempty"`
	RuleSetName string `json:"rule_set_name,omitempty"`
}

// DiscoverFederalRules fans out one discovery job per known rule set
type DiscoverFederalRules struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverFederalRules) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	children := make([]queue.JobRequest, 0, len(ruleSets))
	for _, set := range ruleSets {
		children = append(children, queue.JobRequest{
			JobType:  TypeDiscoverFederalRuleSections,
			URL:      fmt.Sprintf("%s/rules/%s", h.fetcher.BaseURL(), set.Code),
			Params:   ruleSetParams{RuleSet: set.Code, Name: set.Name},
			Priority: priorityDiscovery,
		})
	}

	h.logger.Info("Discovered federal rule sets", slog.Int("rule_sets", len(children)))

	return &Result{
		Children: children,
		Summary:  map[string]any{"rule_sets_found": len(children)},
	}, nil
}

// DiscoverFederalRuleSections fans out a scrape job per rule within one set
type DiscoverFederalRuleSections struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func (h *DiscoverFederalRuleSections) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params ruleSetParams
	if err := decodeParams(job, &params); err != nil {
		return nil, err
	}

	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("/rules/%s/rule_", params.RuleSet)

	var children []queue.JobRequest
	for _, link := range doc.Links() {
		if !strings.Contains(link.Href, prefix) {
			continue
		}

		var ruleNumber string
		if m := ruleNumberPattern.FindStringSubmatch(link.Href); m != nil {
			ruleNumber = m[1]
		}

		children = append(children, queue.JobRequest{
			JobType: TypeScrapeFederalRule,
			URL:     link.URL,
			Params: ruleParams{
				RuleSet:     params.RuleSet,
				RuleNumber:  ruleNumber,
				RuleSetName: params.Name,
			},
			Priority: priorityCaseScrape,
		})
	}

	h.logger.Info("Discovered federal rules",
		slog.String("rule_set", params.RuleSet),
		slog.Int("rules", len(children)),
	)

	return &Result{
		Children: children,
		Summary:  map[string]any{"rule_set": params.RuleSet},
	}, nil
}

// ScrapeFederalRule archives the text of one rule
type ScrapeFederalRule struct {
	fetcher Fetcher
	store   Archive
	logger  *slog.Logger
}

func (h *ScrapeFederalRule) Handle(ctx context.Context, job *queue.Job) (*Result, error) {
	var params ruleParams
	if err := decodeParams(job, &params); err != nil {
		return nil, err
	}

	doc, err := fetchDocument(ctx, h.fetcher, job.URL)
	if err != nil {
		return nil, err
	}

	title := doc.Title()
	if title == "" {
		title = fmt.Sprintf("Rule %s", params.RuleNumber)
	}

	text, html := doc.Content()

	var ruleNumber *string
	if params.RuleNumber != "" {
		ruleNumber = &params.RuleNumber
	}

	err = h.store.SaveFederalRule(ctx, archive.FederalRule{
		RuleSet:     params.RuleSet,
		RuleNumber:  ruleNumber,
		Title:       title,
		TextContent: text,
		HTMLContent: html,
		URL:         job.URL,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Archived federal rule",
		slog.String("rule_set", params.RuleSet),
		slog.String("title", title),
	)

	return &Result{
		Summary: map[string]any{"rule_set": params.RuleSet, "rule_number": params.RuleNumber},
	}, nil
}
