// Package document wraps a parsed HTML tree. A Document is built once per
// fetched page and passed explicitly to every extraction stage.
package document

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobcrawler/internal/core/normalize"
)

// ParseError reports HTML that could not be turned into a tree.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errEmptyDocument = errors.New("empty document")

// LineBreak replaces every <br> in a parsed document so callers can split
// element text into visual lines. CleanText treats it as whitespace.
const LineBreak = "\u2028"

// Document is an immutable-by-convention parsed page.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse builds a Document from raw HTML. pageURL is used to resolve
// relative links and may be empty.
func Parse(html, pageURL string) (*Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &ParseError{URL: pageURL, Err: errEmptyDocument}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	if doc.Find("body").Children().Length() == 0 && strings.TrimSpace(doc.Find("body").Text()) == "" {
		return nil, &ParseError{URL: pageURL, Err: errEmptyDocument}
	}
	doc.Find("br").ReplaceWithHtml(LineBreak)

	var base *url.URL
	if pageURL != "" {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, &ParseError{URL: pageURL, Err: fmt.Errorf("base url: %w", err)}
		}
	}
	return &Document{doc: doc, base: base}, nil
}

// Find runs a CSS selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Body returns the <body> selection.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body")
}

// Lines splits the text of sel on <br> boundaries and cleans each part.
func Lines(sel *goquery.Selection) []string {
	var out []string
	for _, part := range strings.Split(sel.Text(), LineBreak) {
		if t := normalize.CleanText(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Title returns the cleaned <title> text.
func (d *Document) Title() string {
	return normalize.CleanText(d.doc.Find("head title").First().Text())
}

// FirstText returns the cleaned text of the first element matching selector
// that has non-empty text.
func (d *Document) FirstText(selector string) string {
	var out string
	d.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = normalize.CleanText(s.Text())
		return out == ""
	})
	return out
}

// Resolve turns href into an absolute URL against the document base. It
// returns "" for fragment-only, javascript: and mailto: links.
func (d *Document) Resolve(href string) string {
	return ResolveAgainst(d.base, href)
}

// ResolveAgainst is Resolve for an arbitrary base.
func ResolveAgainst(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
