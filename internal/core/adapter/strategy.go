package adapter

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/core/normalize"
)

// TextStrategy yields a candidate value for one field, or "" when it finds
// nothing plausible.
type TextStrategy func(doc *document.Document) string

// firstOf runs strategies in order and returns the first non-empty value.
func firstOf(doc *document.Document, strategies []TextStrategy) string {
	for _, s := range strategies {
		if v := s(doc); v != "" {
			return v
		}
	}
	return ""
}

// Selector returns the text of the first matching element with text.
func Selector(sel string) TextStrategy {
	return func(doc *document.Document) string {
		return doc.FirstText(sel)
	}
}

// BoundedSelector is Selector with an upper length bound, for fields such
// as titles where a huge match means the selector hit a container.
func BoundedSelector(sel string, maxLen int) TextStrategy {
	return func(doc *document.Document) string {
		var out string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := normalize.CleanText(s.Text())
			if t != "" && len([]rune(t)) <= maxLen {
				out = t
				return false
			}
			return true
		})
		return out
	}
}

// DocumentTitle uses <title>, trimmed of a trailing " | Site" or " - Site".
func DocumentTitle() TextStrategy {
	return func(doc *document.Document) string {
		t := doc.Title()
		for _, sep := range []string{" | ", " - ", " – "} {
			if i := strings.LastIndex(t, sep); i > 0 {
				t = t[:i]
			}
		}
		return strings.TrimSpace(t)
	}
}

// Attr returns an attribute of the first element matching sel, resolved to
// an absolute URL when resolve is set.
func Attr(sel, attr string, resolve bool) TextStrategy {
	return func(doc *document.Document) string {
		var out string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr(attr)
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				return true
			}
			if resolve {
				v = doc.Resolve(v)
			}
			out = v
			return out == ""
		})
		return out
	}
}

// Labeled finds "<label>: value" in the document's text lines.
func Labeled(re *regexp.Regexp) TextStrategy {
	return func(doc *document.Document) string {
		for _, line := range textLines(doc.Body()) {
			if m := re.FindStringSubmatch(line); m != nil {
				if v := strings.Trim(strings.TrimSpace(m[1]), ".,;"); v != "" {
					return v
				}
			}
		}
		return ""
	}
}

var (
	organisationLabelRe = regexp.MustCompile(`(?i)^\s*(?:organi[sz]ation|company|employer|hiring organi[sz]ation|recruiter)\s*(?:name)?\s*[:\-]\s*(.{2,100})$`)
	locationLabelRe     = regexp.MustCompile(`(?i)^\s*(?:duty station|job location|work station|place of work|location)\s*:\s*(.{2,80})$`)
	deadlineLabelRe     = regexp.MustCompile(`(?i)^\s*(?:application deadline|deadline(?: for (?:submission|applications))?|closing date|apply before|last date)\s*(?::|-|is|on)?\s*(.{4,80})$`)
)

// OrganisationLabel matches an "Organisation: X" line.
func OrganisationLabel() TextStrategy { return Labeled(organisationLabelRe) }

// LocationLabel matches a "Duty Station: X" or "Location: X" line.
func LocationLabel() TextStrategy { return Labeled(locationLabelRe) }

// DeadlineLabel matches a "Deadline: X" line.
func DeadlineLabel() TextStrategy { return Labeled(deadlineLabelRe) }

// textLines returns the cleaned text of every block element under sel that
// has no block children, in document order.
func textLines(sel *goquery.Selection) []string {
	blocks := sel.Find(blockSelector)
	if blocks.Length() == 0 {
		return document.Lines(sel)
	}
	var out []string
	blocks.Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		out = append(out, document.Lines(s)...)
	})
	return out
}

const blockSelector = "p, li, div, td, dd, dt, h1, h2, h3, h4, h5, h6, section, article"
