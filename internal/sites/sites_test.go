package sites

import (
	"context"
	"strings"
	"testing"

	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

func TestLoadEmbedded(t *testing.T) {
	defs, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("sites = %d, want 2", len(defs))
	}
	bySlug := map[string]models.Site{}
	for _, d := range defs {
		bySlug[d.Slug] = d
	}
	if bySlug["brightermonday"].PageStyle != models.PageStyleQuery {
		t.Errorf("brightermonday = %+v", bySlug["brightermonday"])
	}
	if bySlug["jobline"].PageStyle != models.PageStylePath || !strings.Contains(bySlug["jobline"].BaseURLTemplate, "{page}") {
		t.Errorf("jobline = %+v", bySlug["jobline"])
	}
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	cases := map[string]string{
		"missing template": "sites:\n  - slug: a\n",
		"duplicate":        "sites:\n  - {slug: a, base_url_template: x}\n  - {slug: a, base_url_template: y}\n",
		"bad style":        "sites:\n  - {slug: a, base_url_template: x, page_style: hash}\n",
		"negative max":     "sites:\n  - {slug: a, base_url_template: x, max_page: -1}\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSeedKeepsCursor(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	reg := adapter.DefaultRegistry()
	defs, _ := Load("")

	if err := Seed(ctx, m, reg, defs); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	site, _ := m.GetSite(ctx, "jobline")
	_ = m.SaveCursor(ctx, site.ID, 7)
	if err := Seed(ctx, m, reg, defs); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	again, _ := m.GetSite(ctx, "jobline")
	if again.ID != site.ID || again.CursorPage != 7 {
		t.Fatalf("site after reseed = %+v", again)
	}

	bad := []models.Site{{Slug: "x", Adapter: "unknown", BaseURLTemplate: "https://x"}}
	if err := Seed(ctx, m, reg, bad); err == nil {
		t.Fatal("expected unknown adapter error")
	}
}
