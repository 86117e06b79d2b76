// Package sites loads listing-source definitions and seeds them into the store.
package sites

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/logger"
	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

//go:embed sites.yaml
var defaultSites []byte

type siteFile struct {
	Sites []siteDef `yaml:"sites"`
}

type siteDef struct {
	Slug            string `yaml:"slug"`
	Name            string `yaml:"name"`
	Adapter         string `yaml:"adapter"`
	Origin          string `yaml:"origin"`
	BaseURLTemplate string `yaml:"base_url_template"`
	PageStyle       string `yaml:"page_style"`
	MaxPage         int    `yaml:"max_page"`
}

// Load reads site definitions from path, or the embedded defaults when path
// is empty.
func Load(path string) ([]models.Site, error) {
	raw := defaultSites
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sites file: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]models.Site, error) {
	var f siteFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sites: %w", err)
	}
	seen := make(map[string]bool, len(f.Sites))
	out := make([]models.Site, 0, len(f.Sites))
	for _, d := range f.Sites {
		if d.Slug == "" || d.BaseURLTemplate == "" {
			return nil, fmt.Errorf("site %q: slug and base_url_template are required", d.Slug)
		}
		if seen[d.Slug] {
			return nil, fmt.Errorf("site %q defined twice", d.Slug)
		}
		seen[d.Slug] = true
		if d.MaxPage < 0 {
			return nil, fmt.Errorf("site %q: max_page must be >= 0", d.Slug)
		}
		style := models.PageStyle(d.PageStyle)
		switch style {
		case models.PageStyleQuery, models.PageStylePath:
		case "":
			style = models.PageStyleQuery
		default:
			return nil, fmt.Errorf("site %q: unknown page_style %q", d.Slug, d.PageStyle)
		}
		kind := d.Adapter
		if kind == "" {
			kind = d.Slug
		}
		name := d.Name
		if name == "" {
			name = d.Slug
		}
		out = append(out, models.Site{
			Slug:            d.Slug,
			Name:            name,
			Adapter:         kind,
			Origin:          d.Origin,
			BaseURLTemplate: d.BaseURLTemplate,
			PageStyle:       style,
			MaxPage:         d.MaxPage,
		})
	}
	return out, nil
}

// Seed upserts every site after checking its adapter exists. Cursor state
// of existing rows is kept.
func Seed(ctx context.Context, s store.SiteStore, reg *adapter.Registry, defs []models.Site) error {
	log := logger.New("Sites")
	for _, d := range defs {
		if _, err := reg.Get(d.Adapter); err != nil {
			return fmt.Errorf("site %s: %w", d.Slug, err)
		}
		site, err := s.UpsertSite(ctx, d)
		if err != nil {
			return fmt.Errorf("upsert site %s: %w", d.Slug, err)
		}
		log.LogDebugf("site %s ready (cursor=%d max=%d)", site.Slug, site.CursorPage, site.MaxPage)
	}
	return nil
}
