package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobcrawler/internal/models"
)

// Memory is a process-local Store. Uniqueness of page urls and posting
// external urls is enforced under one mutex.
type Memory struct {
	mu         sync.Mutex
	sites      map[string]*models.Site // by id
	pages      map[string]*models.DiscoveredPage
	pageByURL  map[string]string
	postings   map[string]models.JobPosting // by external url
	districts  []models.District
	categories []models.Category
	seq        int64
}

func NewMemory() *Memory {
	return &Memory{
		sites:     make(map[string]*models.Site),
		pages:     make(map[string]*models.DiscoveredPage),
		pageByURL: make(map[string]string),
		postings:  make(map[string]models.JobPosting),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close()                     {}

// tick returns a strictly increasing timestamp so creation order is stable.
func (m *Memory) tick() time.Time {
	m.seq++
	return time.Now().UTC().Add(time.Duration(m.seq) * time.Microsecond)
}

func (m *Memory) UpsertSite(_ context.Context, site models.Site) (models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if s.Slug == site.Slug {
			s.Name, s.Adapter, s.Origin = site.Name, site.Adapter, site.Origin
			s.BaseURLTemplate, s.PageStyle, s.MaxPage = site.BaseURLTemplate, site.PageStyle, site.MaxPage
			s.UpdatedAt = m.tick()
			return *s, nil
		}
	}
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	if site.LastFetchStatus == "" {
		site.LastFetchStatus = models.FetchPending
	}
	site.CreatedAt = m.tick()
	site.UpdatedAt = site.CreatedAt
	cp := site
	m.sites[site.ID] = &cp
	return cp, nil
}

func (m *Memory) ListSites(context.Context) ([]models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *Memory) GetSite(_ context.Context, slug string) (models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if s.Slug == slug {
			return *s, nil
		}
	}
	return models.Site{}, fmt.Errorf("site %s: %w", slug, ErrNotFound)
}

func (m *Memory) SaveCursor(_ context.Context, siteID string, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[siteID]
	if !ok {
		return fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	s.CursorPage = page
	s.UpdatedAt = m.tick()
	return nil
}

func (m *Memory) RecordListing(_ context.Context, siteID string, r ListingResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[siteID]
	if !ok {
		return fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	at := r.At
	s.LastFetchStatus = r.Status
	s.RawListingHTML = r.HTML
	s.LastError = r.Error
	s.LastFetchedAt = &at
	s.UpdatedAt = m.tick()
	return nil
}

func (m *Memory) InsertPage(_ context.Context, p models.DiscoveredPage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pageByURL[p.URL]; ok {
		return false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	m.pages[p.ID] = &p
	m.pageByURL[p.URL] = p.ID
	return true, nil
}

func (m *Memory) GetPage(_ context.Context, id string) (models.DiscoveredPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return models.DiscoveredPage{}, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return *p, nil
}

func (m *Memory) sortedPages(keep func(*models.DiscoveredPage) bool, limit int) []models.DiscoveredPage {
	var out []models.DiscoveredPage
	for _, p := range m.pages {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].URL < out[j].URL
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) ListPages(_ context.Context, f PageFilter) ([]models.DiscoveredPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedPages(func(p *models.DiscoveredPage) bool {
		return (f.SiteID == "" || p.SiteID == f.SiteID) && (f.Status == "" || p.Status == f.Status)
	}, f.Limit), nil
}

func (m *Memory) PendingPages(_ context.Context, q PendingQuery) ([]models.DiscoveredPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedPages(func(p *models.DiscoveredPage) bool {
		if p.SiteID != q.SiteID {
			return false
		}
		return p.Status == models.PagePending ||
			(q.IncludeErrored && p.Status == models.PageError && p.Attempts < q.MaxAttempts)
	}, q.Limit), nil
}

func (m *Memory) withPage(id string, fn func(p *models.DiscoveredPage)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) StartPageAttempt(_ context.Context, id string) error {
	return m.withPage(id, func(p *models.DiscoveredPage) { p.Attempts++ })
}

func (m *Memory) SavePageHTML(_ context.Context, id, html string) error {
	return m.withPage(id, func(p *models.DiscoveredPage) { p.RawDetailHTML = html })
}

func (m *Memory) FailPage(_ context.Context, id, message string) error {
	return m.withPage(id, func(p *models.DiscoveredPage) {
		p.Status = models.PageError
		p.ErrorMessage = &message
	})
}

func (m *Memory) CompletePage(_ context.Context, id string, posting *models.JobPosting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return false, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	created := false
	if posting != nil {
		if _, exists := m.postings[posting.ExternalURL]; !exists {
			m.postings[posting.ExternalURL] = *posting
			created = true
		}
	}
	p.Status = models.PageCompleted
	p.ErrorMessage = nil
	p.UpdatedAt = time.Now().UTC()
	return created, nil
}

func (m *Memory) ResetPage(_ context.Context, id string) error {
	return m.withPage(id, func(p *models.DiscoveredPage) {
		p.Status = models.PagePending
		p.ErrorMessage = nil
		p.Attempts = 0
	})
}

func (m *Memory) PostingExists(_ context.Context, externalURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.postings[externalURL]
	return ok, nil
}

func (m *Memory) GetPostingByURL(_ context.Context, externalURL string) (models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[externalURL]
	if !ok {
		return models.JobPosting{}, fmt.Errorf("posting %s: %w", externalURL, ErrNotFound)
	}
	return p, nil
}

// PostingCount is a test helper.
func (m *Memory) PostingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.postings)
}

func (m *Memory) Districts(context.Context) ([]models.District, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.District(nil), m.districts...), nil
}

func (m *Memory) Categories(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Category(nil), m.categories...), nil
}

func (m *Memory) SeedReference(_ context.Context, districts []models.District, categories []models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range districts {
		if !hasName(len(m.districts), func(i int) string { return m.districts[i].Name }, d.Name) {
			m.districts = append(m.districts, models.District{ID: int64(len(m.districts) + 1), Name: d.Name})
		}
	}
	for _, c := range categories {
		if !hasName(len(m.categories), func(i int) string { return m.categories[i].Name }, c.Name) {
			m.categories = append(m.categories, models.Category{ID: int64(len(m.categories) + 1), Name: c.Name})
		}
	}
	return nil
}

func hasName(n int, name func(int) string, want string) bool {
	for i := 0; i < n; i++ {
		if strings.EqualFold(name(i), want) {
			return true
		}
	}
	return false
}
