package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
	"github.com/lawvault/lawvault/internal/scraper"
)

const testBaseURL = "https://www.law.cornell.edu"

// fakeFetcher serves canned HTML keyed by URL. Fetching a URL with no
// fixture fails, which doubles as proof that a handler did not fetch.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*scraper.Page, error) {
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", pageURL)
	}

	return &scraper.Page{URL: pageURL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeFetcher) BaseURL() string {
	return testBaseURL
}

// fakeArchive records every save so tests can assert on the stored fields
type fakeArchive struct {
	uscode       []archive.USCodeSection
	cfr          []archive.CFRSection
	cases        []archive.SupremeCourtCase
	constitution []archive.ConstitutionSection
	rules        []archive.FederalRule
	err          error
}

func (f *fakeArchive) SaveUSCode(_ context.Context, section archive.USCodeSection) error {
	if f.err != nil {
		return f.err
	}
	f.uscode = append(f.uscode, section)
	return nil
}

func (f *fakeArchive) SaveCFR(_ context.Context, section archive.CFRSection) error {
	if f.err != nil {
		return f.err
	}
	f.cfr = append(f.cfr, section)
	return nil
}

func (f *fakeArchive) SaveSupremeCourtCase(_ context.Context, courtCase archive.SupremeCourtCase) error {
	if f.err != nil {
		return f.err
	}
	f.cases = append(f.cases, courtCase)
	return nil
}

func (f *fakeArchive) SaveConstitution(_ context.Context, section archive.ConstitutionSection) error {
	if f.err != nil {
		return f.err
	}
	f.constitution = append(f.constitution, section)
	return nil
}

func (f *fakeArchive) SaveFederalRule(_ context.Context, rule archive.FederalRule) error {
	if f.err != nil {
		return f.err
	}
	f.rules = append(f.rules, rule)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string {
	return &s
}

func testJob(t *testing.T, jobType, url string, params any) *queue.Job {
	t.Helper()

	job := &queue.Job{
		ID:      1,
		JobType: jobType,
		URL:     url,
		Status:  queue.StatusProcessing,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		job.Params = raw
	}

	return job
}

func TestRegistry_CoversAllJobTypes(t *testing.T) {
	registry := NewRegistry(&fakeFetcher{}, &fakeArchive{}, testLogger())

	jobTypes := []string{
		TypeDiscoverUSCodeTitles,
		TypeDiscoverUSCodeSections,
		TypeScrapeUSCodeSection,
		TypeDiscoverCFRTitles,
		TypeDiscoverCFRSections,
		TypeScrapeCFRSection,
		TypeDiscoverSupremeCourtCases,
		TypeScrapeSupremeCourtCase,
		TypeDiscoverConstitution,
		TypeScrapeConstitutionSection,
		TypeDiscoverFederalRules,
		TypeDiscoverFederalRuleSections,
		TypeScrapeFederalRule,
	}

	for _, jobType := range jobTypes {
		handler, ok := registry.Get(jobType)
		assert.True(t, ok, "no handler registered for %s", jobType)
		assert.NotNil(t, handler, "nil handler registered for %s", jobType)
	}

	_, ok := registry.Get("mint_currency")
	assert.False(t, ok)
}

func TestHandle_InvalidParams(t *testing.T) {
	handler := &DiscoverUSCodeSections{fetcher: &fakeFetcher{}, logger: testLogger()}

	job := testJob(t, TypeDiscoverUSCodeSections, testBaseURL+"/uscode/text/17", nil)
	job.Params = json.RawMessage(`{"title":`)

	result, err := handler.Handle(context.Background(), job)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "invalid params")
}

func TestHandle_FetchErrorPropagates(t *testing.T) {
	handler := &DiscoverUSCodeTitles{fetcher: &fakeFetcher{}, logger: testLogger()}

	job := testJob(t, TypeDiscoverUSCodeTitles, testBaseURL+"/uscode/text", nil)

	result, err := handler.Handle(context.Background(), job)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestURLPathParts(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{
			name: "relative path",
			url:  "/uscode/text/17/107",
			want: []string{"uscode", "text", "17", "107"},
		},
		{
			name: "absolute url",
			url:  "https://www.law.cornell.edu/uscode/text/17/107",
			want: []string{"uscode", "text", "17", "107"},
		},
		{
			name: "trailing slash",
			url:  "/uscode/text/17/",
			want: []string{"uscode", "text", "17"},
		},
		{
			name: "root",
			url:  "/",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlPathParts(tt.url))
		})
	}
}
