package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scotusListingHTML = `<html><body>
<div class="content">
<h1>Supreme Court: Most Recent Decisions</h1>
<ul>
<li><a href="/supremecourt/text/1973/70-18">Roe v. Wade</a></li>
<li><a href="/supremecourt/text/1966/759">Miranda v. Arizona</a></li>
<li><a href="/supremecourt/text/topic">Browse by topic</a></li>
<li><a href="/uscode/text/17">Title 17</a></li>
</ul>
</div>
</body></html>`

func TestDiscoverSupremeCourtCases(t *testing.T) {
	listingURL := testBaseURL + "/supremecourt/text/party"
	fetcher := &fakeFetcher{pages: map[string]string{listingURL: scotusListingHTML}}
	handler := &DiscoverSupremeCourtCases{fetcher: fetcher, logger: testLogger()}

	job := testJob(t, TypeDiscoverSupremeCourtCases, listingURL, nil)

	result, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)

	// Every link into the case archive fans out, including the other
	// listing views; duplicates collapse in the queue, not here.
	require.Len(t, result.Children, 3)
	assert.Equal(t, 3, result.Summary["cases_found"])

	first := result.Children[0]
	assert.Equal(t, TypeScrapeSupremeCourtCase, first.JobType)
	assert.Equal(t, testBaseURL+"/supremecourt/text/1973/70-18", first.URL)
	assert.Equal(t, priorityCaseScrape, first.Priority)
	assert.Nil(t, first.Params)
}

const scotusCaseHTML = `<html><head>
<title>Roe v. Wade | LII</title>
<meta name="description" content="Landmark decision on the right to privacy.">
</head><body>
<div class="content">
<h1>Roe v. Wade</h1>
<p>410 U.S. 113</p>
<p>No. 70-18</p>
<p>Argued December 13, 1971. Decided January 22, 1973.</p>
<p>State criminal abortion laws violate the Due Process Clause of the
Fourteenth Amendment.</p>
</div>
</body></html>`

func TestScrapeSupremeCourtCase(t *testing.T) {
	caseURL := testBaseURL + "/supremecourt/text/1973/70-18"
	fetcher := &fakeFetcher{pages: map[string]string{caseURL: scotusCaseHTML}}
	store := &fakeArchive{}
	handler := &ScrapeSupremeCourtCase{fetcher: fetcher, store: store, logger: testLogger()}

	job := testJob(t, TypeScrapeSupremeCourtCase, caseURL, nil)

	result, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "Roe v. Wade", result.Summary["case_name"])

	require.Len(t, store.cases, 1)
	saved := store.cases[0]
	assert.Equal(t, "Roe v. Wade", saved.CaseName)
	require.NotNil(t, saved.Citation)
	assert.Equal(t, "410 U.S. 113", *saved.Citation)
	require.NotNil(t, saved.DocketNumber)
	assert.Equal(t, "No. 70-18", *saved.DocketNumber)
	require.NotNil(t, saved.Year)
	assert.Equal(t, 1973, *saved.Year)
	assert.Contains(t, saved.TextContent, "Due Process Clause")
	assert.Equal(t, caseURL, saved.URL)

	assert.Equal(t, "410 U.S. 113", saved.Metadata["citation"])
	assert.Equal(t, "No. 70-18", saved.Metadata["docket_number"])
	assert.Equal(t, 1973, saved.Metadata["year"])
	assert.Equal(t, "Roe v. Wade | LII", saved.Metadata["page_title"])
	assert.Equal(t, "Landmark decision on the right to privacy.", saved.Metadata["description"])
}

func TestScrapeSupremeCourtCase_NothingExtractable(t *testing.T) {
	caseURL := testBaseURL + "/supremecourt/text/unreported"
	fetcher := &fakeFetcher{pages: map[string]string{
		caseURL: `<html><body><p>Per curiam. Judgment affirmed.</p></body></html>`,
	}}
	store := &fakeArchive{}
	handler := &ScrapeSupremeCourtCase{fetcher: fetcher, store: store, logger: testLogger()}

	job := testJob(t, TypeScrapeSupremeCourtCase, caseURL, nil)

	_, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, store.cases, 1)
	saved := store.cases[0]
	assert.Equal(t, "Unknown Case", saved.CaseName)
	assert.Nil(t, saved.Citation)
	assert.Nil(t, saved.DocketNumber)
	assert.Nil(t, saved.Year)
	assert.NotContains(t, saved.Metadata, "citation")
	assert.NotContains(t, saved.Metadata, "year")
}
