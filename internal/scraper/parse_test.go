package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, name, pageURL string) *Document {
	t.Helper()

	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	doc, err := Parse(&Page{URL: pageURL, Body: body})
	require.NoError(t, err)

	return doc
}

func parseHTML(t *testing.T, pageURL, html string) *Document {
	t.Helper()

	doc, err := Parse(&Page{URL: pageURL, Body: []byte(html)})
	require.NoError(t, err)

	return doc
}

func TestDocument_Title(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 preferred",
			html: `<html><body><h1> Main Heading </h1><h2>Sub</h2></body></html>`,
			want: "Main Heading",
		},
		{
			name: "h2 fallback",
			html: `<html><body><h2>Only Subheading</h2></body></html>`,
			want: "Only Subheading",
		},
		{
			name: "no headings",
			html: `<html><body><p>text</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, "https://www.law.cornell.edu/x", tt.html)
			assert.Equal(t, tt.want, doc.Title())
		})
	}
}

func TestDocument_Content(t *testing.T) {
	doc := parseFixture(t, "uscode_section.html", "https://www.law.cornell.edu/uscode/text/17/107")

	assert.Equal(t, "17 U.S. Code § 107 - Limitations on exclusive rights: Fair use", doc.Title())

	text, html := doc.Content()

	assert.Contains(t, text, "fair use of a copyrighted work")
	assert.Contains(t, text, "Notwithstanding the provisions of sections")

	// Chrome and scripts never reach the archived content.
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "About LII")
	assert.NotContains(t, text, "Legal Information Institute")

	assert.Contains(t, html, `<div class="content">`)
	assert.NotContains(t, html, "console.log")
	assert.NotContains(t, html, "<footer>")
}

func TestDocument_Content_IDSelector(t *testing.T) {
	doc := parseHTML(t, "https://www.law.cornell.edu/x", `
		<html><body>
		<div id="content"><p>Body text here.</p></div>
		<footer>ignored</footer>
		</body></html>`)

	text, html := doc.Content()
	assert.Equal(t, "Body text here.", text)
	assert.Contains(t, html, `<div id="content">`)
}

func TestDocument_Content_WholePageFallback(t *testing.T) {
	doc := parseHTML(t, "https://www.law.cornell.edu/x", `
		<html><body>
		<script>tracking();</script>
		<p>First paragraph.</p>
		<p>Second paragraph.</p>
		</body></html>`)

	text, html := doc.Content()
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
	assert.Contains(t, html, "<html>")
	assert.NotContains(t, html, "tracking()")
}

func TestDocument_Links(t *testing.T) {
	doc := parseFixture(t, "uscode_section.html", "https://www.law.cornell.edu/uscode/text/17/107")

	links := doc.Links()
	byURL := map[string]Link{}
	count := map[string]int{}
	for _, link := range links {
		byURL[link.URL] = link
		count[link.URL]++
	}

	// Relative hrefs resolve against the page URL.
	link, ok := byURL["https://www.law.cornell.edu/uscode/text/17/106A"]
	require.True(t, ok)
	assert.Equal(t, "/uscode/text/17/106A", link.Href)
	assert.Equal(t, "106A", link.Text)

	// The relative and absolute forms of section 106 collapse to one link.
	assert.Equal(t, 1, count["https://www.law.cornell.edu/uscode/text/17/106"])

	// Fragments are stripped.
	_, ok = byURL["https://www.law.cornell.edu/uscode/text/17/108"]
	assert.True(t, ok)
	for _, link := range links {
		assert.NotContains(t, link.URL, "#")
	}
}

func TestDocument_Links_QueryPreserved(t *testing.T) {
	doc := parseHTML(t, "https://www.law.cornell.edu/supremecourt/text",
		`<html><body><a href="/supremecourt/search?q=roe#top">search</a></body></html>`)

	links := doc.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "https://www.law.cornell.edu/supremecourt/search?q=roe", links[0].URL)
}

func TestDocument_Metadata(t *testing.T) {
	doc := parseFixture(t, "uscode_section.html", "https://www.law.cornell.edu/uscode/text/17/107")

	metadata := doc.Metadata()
	assert.Equal(t, "17 U.S. Code § 107 - Limitations on exclusive rights: Fair use | LII", metadata["page_title"])
	assert.Equal(t, "Fair use of a copyrighted work is not an infringement of copyright.", metadata["description"])
	assert.Equal(t, "copyright, fair use, us code", metadata["keywords"])
	assert.NotContains(t, metadata, "published_date")
}

func TestDocument_Text(t *testing.T) {
	doc := parseHTML(t, "https://www.law.cornell.edu/x", `
		<html><body>
		<h1>Roe v. Wade</h1>
		<p>410 U.S. 113</p>
		<p>No. 70-18</p>
		</body></html>`)

	text := doc.Text()
	assert.Contains(t, text, "Roe v. Wade")
	assert.Contains(t, text, "410 U.S. 113")
	assert.Contains(t, text, "No. 70-18")
}
