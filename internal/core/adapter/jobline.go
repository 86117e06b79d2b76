package adapter

import (
	"net/url"
	"regexp"
	"strings"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/models"
)

// Jobline handles blog-style job sites (WordPress, Blogger) where postings
// are dated articles and listing pages paginate by path.
type Jobline struct{}

var datePathRe = regexp.MustCompile(`^/\d{4}/\d{2}/[^/]+\.html?$`)

var joblineMarkers = []string{"/job/", "/jobs/", "/vacancy/", "/vacancies/", "/career/", "/careers/"}

var joblineExcluded = []string{
	"/category/", "/tag/", "/author/", "/page/", "/search", "/label/",
	"/wp-admin", "/wp-login", "/wp-json", "/feed", "/comments", "/xmlrpc",
}

func (Jobline) Kind() string { return "jobline" }

func (Jobline) ListingURL(site models.Site, page int) string {
	return ListingURL(site, page)
}

func (Jobline) Discover(site models.Site, doc *document.Document) []Candidate {
	return collectLinks(site, doc, joblineDetailPath)
}

func joblineDetailPath(u *url.URL) bool {
	path := strings.ToLower(u.Path)
	for _, ex := range joblineExcluded {
		if strings.Contains(path, ex) {
			return false
		}
	}
	if datePathRe.MatchString(path) {
		return true
	}
	for _, m := range joblineMarkers {
		// The marker alone is an index page, not a posting.
		if i := strings.Index(path, m); i >= 0 && len(strings.Trim(path[i+len(m):], "/")) > 0 {
			return true
		}
	}
	return false
}

func (Jobline) Profile() Profile {
	return Profile{
		Title: []TextStrategy{
			BoundedSelector("h1.entry-title, h1.post-title, h3.post-title", 200),
			BoundedSelector(`[class*="entry-title"], [class*="post-title"]`, 200),
			BoundedSelector(`[itemprop="headline"], [itemprop="name"]`, 200),
			DocumentTitle(),
		},
		ContentRegions: []string{
			".entry-content",
			".post-body",
			".post-content",
			`[itemprop="articleBody"]`,
			"article",
			"main",
		},
		DenyPhrases: []string{"jobline", "join our whatsapp", "telegram channel", "get daily job alerts", "read more", "posted by"},
		Location: []TextStrategy{
			Selector(`[class*="job-location"]`),
		},
		Deadline: []TextStrategy{
			Selector(`[class*="deadline"]`),
		},
		CategoryLinks: []string{
			`a[rel~="category"]`,
			".cat-links a",
			".post-labels a",
			`a[rel="tag"]`,
		},
		Company: []TextStrategy{
			Selector(`[class*="company-name"]`),
			Selector(`[class*="company"] strong`),
		},
		Logo: []TextStrategy{
			Attr(`.entry-content img[class*="logo"], .post-body img[class*="logo"]`, "src", true),
			Attr(".entry-content img, .post-body img", "src", true),
		},
	}
}
