package adapter

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/core/normalize"
	"jobcrawler/internal/utils/markdown"
)

type bucket int

const (
	bucketOverview bucket = iota
	bucketResponsibility
	bucketQualification
	bucketBenefit
	bucketOther
)

var bucketCaps = map[bucket]int{
	bucketOverview:       3,
	bucketResponsibility: 12,
	bucketQualification:  10,
	bucketBenefit:        8,
	bucketOther:          6,
}

const minBlockLen = 15

var defaultDenyPhrases = []string{
	"report job", "report this job", "share this", "share on", "facebook", "twitter",
	"linkedin", "whatsapp", "telegram", "instagram", "subscribe", "advertisement",
	"sponsored", "copyright", "all rights reserved", "sign in", "log in", "login to",
	"create an account", "related jobs", "similar jobs", "previous post", "next post",
	"cookie", "powered by",
}

// block is one harvested text node with the heading it sits under.
type block struct {
	text     string
	section  string
	listItem bool
}

// content is the harvested main region of a detail page.
type content struct {
	region *goquery.Selection
	blocks []block
	// lines holds every text line of the whole body, unfiltered, for label
	// searches that short lines would otherwise miss.
	lines []string
	// regionLines is every text line of the cleaned region.
	regionLines []string
}

func harvest(doc *document.Document, p Profile) content {
	region := mainRegion(doc, p.ContentRegions).Clone()
	markdown.StripBoilerplate(region)

	deny := append(append([]string{}, defaultDenyPhrases...), p.DenyPhrases...)
	seen := make(map[string]bool)
	c := content{region: region, lines: textLines(doc.Body()), regionLines: textLines(region)}

	add := func(lines []string, section string, listItem bool) {
		for _, line := range lines {
			if utf8.RuneCountInString(line) < minBlockLen || seen[line] || denied(line, deny) {
				continue
			}
			seen[line] = true
			c.blocks = append(c.blocks, block{text: line, section: section, listItem: listItem})
		}
	}

	blocks := region.Find(blockSelector)
	if blocks.Length() == 0 {
		add(document.Lines(region), "", false)
		return c
	}
	section := ""
	blocks.Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 || goquery.NodeName(s) == "h1" {
			return
		}
		if h := headingText(s); h != "" {
			section = strings.ToLower(h)
			return
		}
		add(document.Lines(s), section, goquery.NodeName(s) == "li")
	})
	return c
}

func mainRegion(doc *document.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s
		}
	}
	return doc.Body()
}

// headingText reports the text of s when it acts as a section heading: a real
// heading element, or a short paragraph that is entirely bold or ends in ":".
func headingText(s *goquery.Selection) string {
	text := normalize.CleanText(s.Text())
	if text == "" || utf8.RuneCountInString(text) > 80 {
		return ""
	}
	switch goquery.NodeName(s) {
	case "h2", "h3", "h4", "h5", "h6", "dt":
		return text
	}
	if bold := normalize.CleanText(s.ChildrenFiltered("strong, b").Text()); bold == text && utf8.RuneCountInString(text) <= 60 {
		return text
	}
	if strings.HasSuffix(text, ":") && utf8.RuneCountInString(text) <= 60 {
		return strings.TrimSuffix(text, ":")
	}
	return ""
}

func denied(line string, deny []string) bool {
	return normalize.ContainsAny(line, deny)
}

var sectionTerms = []struct {
	b     bucket
	terms []string
}{
	{bucketResponsibility, []string{"responsibilit", "duties", "tasks", "what you will do", "key result", "accountabilit", "role description"}},
	{bucketQualification, []string{"qualification", "requirement", "skills", "competenc", "experience", "education", "person specification", "looking for"}},
	{bucketBenefit, []string{"benefit", "remuneration", "compensation", "salary", "what we offer", "perks"}},
	{bucketOverview, []string{"overview", "summary", "about", "background", "introduction", "purpose"}},
}

var keywordTerms = []struct {
	b     bucket
	terms []string
}{
	{bucketOverview, []string{"is seeking", "is looking for", "invites applications", "seeks to recruit", "wishes to recruit", "is recruiting", "about us", "we are a", "is a leading"}},
	{bucketResponsibility, []string{"responsib", "manage", "ensure", "coordinat", "prepare", "develop", "maintain", "oversee", "supervis", "implement", "monitor", "conduct", "assist", "handle", "organis", "organiz", "liaise", "perform"}},
	{bucketQualification, []string{"degree", "experience", "required", "qualification", "diploma", "bachelor", "certificate", "knowledge of", "skills", "ability to", "proficien", "must have", "years of", "minimum", "master"}},
	{bucketBenefit, []string{"salary", "benefit", "package", "allowance", "insurance", "remuneration", "compensation", "bonus", "leave days", "pension", "medical cover"}},
}

// classify assigns a block to a bucket. List items follow the heading they
// sit under; paragraphs go by their own keywords first and fall back to the
// heading.
func classify(b block) bucket {
	fromSection, ok := sectionBucket(b.section)
	if ok && b.listItem {
		return fromSection
	}
	lower := strings.ToLower(b.text)
	for _, kt := range keywordTerms {
		for _, t := range kt.terms {
			if strings.Contains(lower, t) {
				return kt.b
			}
		}
	}
	if ok {
		return fromSection
	}
	return bucketOther
}

func sectionBucket(section string) (bucket, bool) {
	if section == "" {
		return bucketOther, false
	}
	for _, st := range sectionTerms {
		for _, t := range st.terms {
			if strings.Contains(section, t) {
				return st.b, true
			}
		}
	}
	return bucketOther, false
}

type buckets map[bucket][]string

func classifyAll(blocks []block) buckets {
	out := make(buckets)
	for _, b := range blocks {
		k := classify(b)
		if len(out[k]) >= bucketCaps[k] {
			continue
		}
		out[k] = append(out[k], b.text)
	}
	return out
}

func (b buckets) usable() bool {
	return len(b[bucketOverview])+len(b[bucketResponsibility])+len(b[bucketQualification])+len(b[bucketBenefit]) > 0
}

// assemble renders buckets in a fixed order, omitting empty sections.
func assemble(b buckets) string {
	var sb strings.Builder
	writeParas := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("<h3>" + title + "</h3>\n")
		for _, it := range items {
			sb.WriteString("<p>" + html.EscapeString(it) + "</p>\n")
		}
	}
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("<h3>" + title + "</h3>\n<ul>\n")
		for _, it := range items {
			sb.WriteString("<li>" + html.EscapeString(it) + "</li>\n")
		}
		sb.WriteString("</ul>\n")
	}
	writeParas("Job Overview", b[bucketOverview])
	writeList("Key Responsibilities", b[bucketResponsibility])
	writeList("Qualifications &amp; Requirements", b[bucketQualification])
	writeList("Benefits", b[bucketBenefit])
	writeParas("Additional Information", b[bucketOther])
	return strings.TrimSpace(sb.String())
}

// largestBlock renders the container whose direct paragraph and list
// children carry the most text. With no such container it falls back to the
// longest single line of the region.
func largestBlock(region *goquery.Selection) string {
	var (
		best     []string
		bestSize int
	)
	candidates := region.Find("article, section, div, td").AddSelection(region)
	candidates.Each(func(_ int, s *goquery.Selection) {
		var lines []string
		size := 0
		s.ChildrenFiltered("p, li, ul, ol").Each(func(_ int, c *goquery.Selection) {
			for _, l := range document.Lines(c) {
				lines = append(lines, l)
				size += len(l)
			}
		})
		if size > bestSize {
			best, bestSize = lines, size
		}
	})
	if len(best) == 0 {
		var longest string
		for _, l := range textLines(region) {
			if len(l) > len(longest) {
				longest = l
			}
		}
		if longest == "" {
			return ""
		}
		best = []string{longest}
	}
	var sb strings.Builder
	for _, l := range best {
		sb.WriteString("<p>" + html.EscapeString(l) + "</p>\n")
	}
	return strings.TrimSpace(sb.String())
}

func (c content) text() string {
	parts := make([]string, 0, len(c.blocks))
	for _, b := range c.blocks {
		parts = append(parts, b.text)
	}
	return strings.Join(parts, "\n")
}
