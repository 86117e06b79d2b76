package markdown

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	linkRe         = regexp.MustCompile(`https?://[^\s)]+`)
	linkLineRe     = regexp.MustCompile(`^!?\[[^\]]*\]\((https?:\/\/[^\)]+)\)$`)
	imgRe          = regexp.MustCompile(`!\[[^\]]*\]\([^\)]+\)`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// Class/id tokens that mark page chrome rather than posting content.
var (
	boilerplateExact  = []string{"ad", "ads", "nav", "menu", "share", "social", "related", "comments", "sidebar"}
	boilerplatePrefix = []string{
		"cookie", "consent", "banner", "navbar", "nav-", "menu-", "pagination",
		"share-", "sharing", "social-", "signup", "signin", "login",
		"advert", "adsbygoogle", "promo", "modal", "popup", "dialog",
		"breadcrumb", "sidebar", "related-", "newsletter", "comment-",
	}
)

// StripBoilerplate removes script, navigation, ad and share chrome from sel
// in place.
func StripBoilerplate(sel *goquery.Selection) {
	sel.Find("script, style, noscript, nav, header, footer, aside, form, iframe, svg, button, input, select, textarea").Remove()
	sel.Find(`[role="navigation"], [role="banner"], [role="contentinfo"], [aria-modal]`).Remove()

	sel.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		classVal, _ := s.Attr("class")
		idVal, _ := s.Attr("id")
		for _, tok := range strings.Fields(strings.ToLower(classVal + " " + idVal)) {
			if isBoilerplateToken(tok) {
				s.Remove()
				return
			}
		}
	})
}

func isBoilerplateToken(tok string) bool {
	for _, kw := range boilerplateExact {
		if tok == kw {
			return true
		}
	}
	for _, kw := range boilerplatePrefix {
		if strings.HasPrefix(tok, kw) {
			return true
		}
	}
	return false
}

// ConvertHTMLToMarkdown converts an HTML fragment to markdown and does a
// light cleanup.
func ConvertHTMLToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(html)
	if err != nil {
		return ""
	}
	out = RemoveDuplicates(out)
	out = CleanMarkdownBoilerplate(out)
	out = multiNewlineRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// SelectionToMarkdown strips boilerplate from a copy of sel and converts it.
func SelectionToMarkdown(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	c := sel.First().Clone()
	StripBoilerplate(c)
	html, err := c.Html()
	if err != nil {
		return ""
	}
	return ConvertHTMLToMarkdown(html)
}

// RemoveDuplicates drops repeated link-only lines.
func RemoveDuplicates(markdown string) string {
	var cleaned bytes.Buffer
	seenLinks := make(map[string]bool)
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if linkLineRe.MatchString(trimmed) {
			key := linkRe.ReplaceAllString(trimmed, "LINK")
			if seenLinks[key] {
				continue
			}
			seenLinks[key] = true
		}
		cleaned.WriteString(trimmed + "\n")
	}
	return cleaned.String()
}

// CleanMarkdownBoilerplate removes markdown-level noise after conversion.
func CleanMarkdownBoilerplate(mdText string) string {
	lines := strings.Split(mdText, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		line := strings.TrimSpace(l)
		if line == "" {
			out = append(out, "")
			continue
		}
		// Drop pure image lines
		if imgRe.MatchString(line) && strings.TrimSpace(imgRe.ReplaceAllString(line, "")) == "" {
			continue
		}
		out = append(out, fixControlCharacters(line))
	}
	cleaned := strings.Join(out, "\n")
	cleaned = multiNewlineRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func fixControlCharacters(text string) string {
	text = controlCharsRe.ReplaceAllString(text, "")
	for _, ch := range []string{"\u200B", "\u200C", "\u200D", "\u200E", "\u200F", "\u2028", "\u2029", "\uFEFF", "\uFFFD"} {
		text = strings.ReplaceAll(text, ch, "")
	}
	return text
}
