// Package adapter turns a source site's listing and detail HTML into
// candidate links and normalized job postings.
//
// Each site is served by an Adapter that knows its link shapes and the
// selectors worth trying for each field. The extraction stages themselves
// are shared and live on Pipeline.
package adapter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/models"
)

// Candidate is a detail-page link found on a listing page.
type Candidate struct {
	URL       string
	TitleHint string
}

// Adapter is the per-source behavior. Implementations hold no mutable state.
type Adapter interface {
	// Kind names the adapter in sites.yaml.
	Kind() string
	// ListingURL renders the listing URL for a page index.
	ListingURL(site models.Site, page int) string
	// Discover returns absolute candidate detail URLs in document order.
	Discover(site models.Site, doc *document.Document) []Candidate
	// Profile lists the per-field strategies used during extraction.
	Profile() Profile
}

// Profile is the site-specific half of the extraction cascade. Every list is
// tried in order and the first plausible value wins.
type Profile struct {
	Title          []TextStrategy
	ContentRegions []string
	DenyPhrases    []string
	Location       []TextStrategy
	Deadline       []TextStrategy
	Salary         []TextStrategy
	CategoryLinks  []string
	Company        []TextStrategy
	Logo           []TextStrategy
}

// ListingURL expands a site's base template. Query-style sites carry the page
// in a "page" query parameter; path-style sites substitute {page} or append
// the number as a final path segment.
func ListingURL(site models.Site, page int) string {
	n := strconv.Itoa(page)
	tmpl := site.BaseURLTemplate
	if strings.Contains(tmpl, "{page}") {
		return strings.ReplaceAll(tmpl, "{page}", n)
	}
	switch site.PageStyle {
	case models.PageStylePath:
		return strings.TrimRight(tmpl, "/") + "/" + n
	default:
		u, err := url.Parse(tmpl)
		if err != nil {
			return tmpl
		}
		q := u.Query()
		q.Set("page", n)
		u.RawQuery = q.Encode()
		return u.String()
	}
}

// Registry resolves adapters by kind.
type Registry struct {
	byKind map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byKind: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.byKind[a.Kind()] = a
	}
	return r
}

// DefaultRegistry holds every built-in adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(BrighterMonday{}, Jobline{})
}

func (r *Registry) Get(kind string) (Adapter, error) {
	a, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q", kind)
	}
	return a, nil
}

func sameHost(a, b string) bool {
	ua, err1 := url.Parse(a)
	ub, err2 := url.Parse(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return strings.TrimPrefix(strings.ToLower(ua.Hostname()), "www.") == strings.TrimPrefix(strings.ToLower(ub.Hostname()), "www.")
}
