package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed page ready for extraction
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse builds a Document from a fetched page
func Parse(page *Page) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", page.URL, err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}

	return &Document{doc: doc, base: base}, nil
}

// Title returns the first h1 heading, falling back to the first h2.
// Empty when the page has neither.
func (d *Document) Title() string {
	if t := strings.TrimSpace(d.doc.Find("h1").First().Text()); t != "" {
		return t
	}

	return strings.TrimSpace(d.doc.Find("h2").First().Text())
}

// Text returns the visible text of the whole page, one trimmed line per
// text node. Used for regex extraction over full page content.
func (d *Document) Text() string {
	return textLines(d.doc.Selection)
}

// Content locates the main content region and returns its cleaned text and
// HTML. LII pages keep body text in div.content or div#content; when neither
// exists the whole page is used. Script, style and chrome elements are
// stripped from both forms.
func (d *Document) Content() (string, string) {
	sel := d.doc.Find("div.content").First()
	if sel.Length() == 0 {
		sel = d.doc.Find("div#content").First()
	}
	if sel.Length() == 0 {
		sel = d.doc.Selection
	}

	clone := sel.Clone()
	clone.Find("script, style, nav, header, footer").Remove()

	text := textLines(clone)
	htmlContent, _ := goquery.OuterHtml(clone)

	return text, strings.TrimSpace(htmlContent)
}

// Link is one anchor from a page
type Link struct {
	Href string // href attribute as written in the document
	URL  string // absolute URL with any fragment removed
	Text string // trimmed anchor text
}

// Links returns every anchor with an href, resolved against the page URL and
// de-duplicated by resolved URL in document order.
func (d *Document) Links() []Link {
	var links []Link
	seen := map[string]bool{}

	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		resolved := d.resolve(href)
		if parsed, err := url.Parse(resolved); err == nil {
			parsed.Fragment = ""
			resolved = parsed.String()
		}

		if seen[resolved] {
			return
		}
		seen[resolved] = true

		links = append(links, Link{
			Href: href,
			URL:  resolved,
			Text: strings.TrimSpace(sel.Text()),
		})
	})

	return links
}

// Metadata collects page metadata: title tag, meta description and keywords,
// and the article publication time when present.
func (d *Document) Metadata() map[string]any {
	metadata := map[string]any{}

	if title := strings.TrimSpace(d.doc.Find("title").First().Text()); title != "" {
		metadata["page_title"] = title
	}
	if desc, ok := d.doc.Find(`meta[name="description"]`).Attr("content"); ok && desc != "" {
		metadata["description"] = desc
	}
	if keywords, ok := d.doc.Find(`meta[name="keywords"]`).Attr("content"); ok && keywords != "" {
		metadata["keywords"] = keywords
	}
	if published, ok := d.doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok && published != "" {
		metadata["published_date"] = published
	}

	return metadata
}

func (d *Document) resolve(href string) string {
	if strings.HasPrefix(href, "http") || d.base == nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return d.base.ResolveReference(ref).String()
}

// textLines flattens a selection to trimmed non-empty text lines
func textLines(sel *goquery.Selection) string {
	var lines []string
	for _, node := range sel.Nodes {
		collectText(node, &lines)
	}

	return strings.Join(lines, "\n")
}

func collectText(node *html.Node, lines *[]string) {
	if node.Type == html.TextNode {
		for _, line := range strings.Split(node.Data, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				*lines = append(*lines, trimmed)
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, lines)
	}
}
