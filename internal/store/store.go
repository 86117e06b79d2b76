// Package store persists sites, discovered pages and job postings.
//
// Two implementations exist: Postgres (pgx) for deployments and an
// in-memory store for tests and local runs without a database.
package store

import (
	"context"
	"errors"
	"time"

	"jobcrawler/internal/models"
)

// ErrNotFound is returned when a lookup by id or slug matches nothing.
var ErrNotFound = errors.New("not found")

// SiteStore holds the configured sources and their pagination state.
type SiteStore interface {
	// UpsertSite inserts or updates a site's static definition by slug. The
	// cursor and last-fetch fields of an existing row are left alone.
	UpsertSite(ctx context.Context, site models.Site) (models.Site, error)
	ListSites(ctx context.Context) ([]models.Site, error)
	GetSite(ctx context.Context, slug string) (models.Site, error)
	SaveCursor(ctx context.Context, siteID string, page int) error
	// RecordListing stores the outcome of a listing fetch.
	RecordListing(ctx context.Context, siteID string, r ListingResult) error
}

// ListingResult is what RecordListing writes onto a site.
type ListingResult struct {
	Status models.FetchStatus
	HTML   string
	Error  *string
	At     time.Time
}

// PageFilter narrows ListPages. Zero values mean "any".
type PageFilter struct {
	SiteID string
	Status models.PageStatus
	Limit  int
}

// PendingQuery selects the pages a cycle should process.
type PendingQuery struct {
	SiteID string
	// IncludeErrored also returns error pages with fewer than MaxAttempts.
	IncludeErrored bool
	MaxAttempts    int
	Limit          int
}

// PageStore tracks one row per discovered detail URL.
type PageStore interface {
	// InsertPage adds a pending page. It reports false without error when
	// the url is already recorded.
	InsertPage(ctx context.Context, page models.DiscoveredPage) (bool, error)
	GetPage(ctx context.Context, id string) (models.DiscoveredPage, error)
	ListPages(ctx context.Context, f PageFilter) ([]models.DiscoveredPage, error)
	PendingPages(ctx context.Context, q PendingQuery) ([]models.DiscoveredPage, error)
	// StartPageAttempt increments the attempt counter before a fetch.
	StartPageAttempt(ctx context.Context, id string) error
	SavePageHTML(ctx context.Context, id, html string) error
	FailPage(ctx context.Context, id, message string) error
	// CompletePage marks the page completed and, when posting is non-nil,
	// inserts it in the same transaction. It reports whether a posting row
	// was created.
	CompletePage(ctx context.Context, id string, posting *models.JobPosting) (bool, error)
	// ResetPage returns a page to pending with a clean error and attempt count.
	ResetPage(ctx context.Context, id string) error
}

// PostingStore is the read side the extractor needs.
type PostingStore interface {
	PostingExists(ctx context.Context, externalURL string) (bool, error)
	GetPostingByURL(ctx context.Context, externalURL string) (models.JobPosting, error)
}

// ReferenceStore reads the board-owned district and category tables.
type ReferenceStore interface {
	Districts(ctx context.Context) ([]models.District, error)
	Categories(ctx context.Context) ([]models.Category, error)
	// SeedReference inserts any missing rows by name.
	SeedReference(ctx context.Context, districts []models.District, categories []models.Category) error
}

type Store interface {
	SiteStore
	PageStore
	PostingStore
	ReferenceStore
	Ping(ctx context.Context) error
	Close()
}
