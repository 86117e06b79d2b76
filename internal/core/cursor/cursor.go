// Package cursor drives per-site listing pagination.
package cursor

import (
	"context"
	"fmt"

	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

// Next returns the page after current, wrapping to 0 past max.
func Next(current, max int) int {
	page := current + 1
	if page > max || page < 0 {
		return 0
	}
	return page
}

type Driver struct {
	sites store.SiteStore
}

func New(sites store.SiteStore) *Driver { return &Driver{sites: sites} }

// Advance moves site to its next listing page and persists the cursor before
// returning the URL to fetch. A crash after this point skips the page rather
// than replaying it forever.
func (d *Driver) Advance(ctx context.Context, site models.Site, a adapter.Adapter) (string, models.Site, error) {
	page := Next(site.CursorPage, site.MaxPage)
	if err := d.sites.SaveCursor(ctx, site.ID, page); err != nil {
		return "", site, fmt.Errorf("save cursor for %s: %w", site.Slug, err)
	}
	site.CursorPage = page
	return a.ListingURL(site, page), site, nil
}
