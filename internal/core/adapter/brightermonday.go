package adapter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/core/normalize"
	"jobcrawler/internal/models"
)

// BrighterMonday handles job boards whose detail pages all live under a
// fixed "/listings/" path segment.
type BrighterMonday struct{}

const listingsMarker = "/listings/"

func (BrighterMonday) Kind() string { return "brightermonday" }

func (BrighterMonday) ListingURL(site models.Site, page int) string {
	return ListingURL(site, page)
}

func (BrighterMonday) Discover(site models.Site, doc *document.Document) []Candidate {
	return collectLinks(site, doc, func(u *url.URL) bool {
		return strings.Contains(u.Path, listingsMarker)
	})
}

func (BrighterMonday) Profile() Profile {
	return Profile{
		Title: []TextStrategy{
			BoundedSelector("h1", 200),
			BoundedSelector(`[class*="job-title"], [class*="job__title"]`, 200),
			BoundedSelector(`[itemprop="title"], [data-cy*="title"]`, 200),
			DocumentTitle(),
		},
		ContentRegions: []string{
			`article.job__details`,
			`[class*="job-details"]`,
			`[class*="job__details"]`,
			`[class*="job-description"]`,
			`[itemprop="description"]`,
			"main article",
			"main",
		},
		DenyPhrases: []string{"brightermonday", "report this job", "job seekers", "get alerts"},
		Location: []TextStrategy{
			Selector(`[itemprop="jobLocation"]`),
			Selector(`[class*="job-location"], [class*="location"] a`),
		},
		Deadline: []TextStrategy{
			Selector(`[class*="deadline"]`),
			Attr(`[itemprop="validThrough"]`, "content", false),
		},
		Salary: []TextStrategy{
			Selector(`[class*="salary"]`),
			Selector(`[itemprop="baseSalary"]`),
		},
		CategoryLinks: []string{
			`a[href*="/jobs/"][class*="category"]`,
			`[class*="job-function"] a`,
			`a[href*="job-function"]`,
		},
		Company: []TextStrategy{
			Selector(`[itemprop="hiringOrganization"] [itemprop="name"]`),
			Selector(`[class*="company-name"]`),
			BoundedSelector(`a[href*="/company/"]`, 120),
		},
		Logo: []TextStrategy{
			Attr(`img[class*="logo"]`, "src", true),
			Attr(`img[src*="logo"]`, "src", true),
			Attr(`[class*="company"] img`, "src", true),
		},
	}
}

// collectLinks walks every anchor, resolves it against the site origin and
// keeps same-host links accepted by keep. Duplicates within the page are
// dropped; order follows the document.
func collectLinks(site models.Site, doc *document.Document, keep func(*url.URL) bool) []Candidate {
	origin, _ := url.Parse(site.Origin)
	seen := make(map[string]bool)
	var out []Candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := document.ResolveAgainst(origin, href)
		if abs == "" || seen[abs] {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !keep(u) {
			return
		}
		if origin != nil && !sameHost(abs, site.Origin) {
			return
		}
		seen[abs] = true
		hint := normalize.CleanText(a.Text())
		if hint == "" {
			hint, _ = a.Attr("title")
			hint = normalize.CleanText(hint)
		}
		out = append(out, Candidate{URL: abs, TitleHint: hint})
	})
	return out
}
