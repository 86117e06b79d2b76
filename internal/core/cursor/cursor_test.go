package cursor

import (
	"context"
	"testing"

	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

func TestNext(t *testing.T) {
	cases := []struct{ current, max, want int }{
		{0, 5, 1},
		{4, 5, 5},
		{5, 5, 0},
		{0, 0, 0},
		{9, 5, 0},
	}
	for _, c := range cases {
		if got := Next(c.current, c.max); got != c.want {
			t.Errorf("Next(%d, %d) = %d, want %d", c.current, c.max, got, c.want)
		}
	}
}

func TestAdvancePersistsBeforeReturning(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	site, err := m.UpsertSite(ctx, models.Site{
		Slug:            "jobline",
		Adapter:         "jobline",
		BaseURLTemplate: "https://jobline.example/jobs",
		PageStyle:       models.PageStylePath,
		MaxPage:         5,
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = m.SaveCursor(ctx, site.ID, 5)
	site.CursorPage = 5

	url, updated, err := New(m).Advance(ctx, site, adapter.Jobline{})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if updated.CursorPage != 0 {
		t.Fatalf("cursor = %d, want 0", updated.CursorPage)
	}
	if url != "https://jobline.example/jobs/0" {
		t.Fatalf("url = %q", url)
	}
	stored, _ := m.GetSite(ctx, "jobline")
	if stored.CursorPage != 0 {
		t.Fatalf("stored cursor = %d, want 0", stored.CursorPage)
	}
}

func TestAdvanceQueryStyle(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	site, _ := m.UpsertSite(ctx, models.Site{
		Slug:            "brightermonday",
		BaseURLTemplate: "https://bm.example/jobs?sort=latest",
		PageStyle:       models.PageStyleQuery,
		MaxPage:         10,
	})
	url, _, err := New(m).Advance(ctx, site, adapter.BrighterMonday{})
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://bm.example/jobs?page=1&sort=latest" {
		t.Fatalf("url = %q", url)
	}
}
