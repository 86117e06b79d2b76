package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

type recorder struct {
	mu    sync.Mutex
	slugs []string
	fail  string
}

func (r *recorder) Enqueue(_ context.Context, slug string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slug == r.fail {
		return "", errors.New("queue down")
	}
	r.slugs = append(r.slugs, slug)
	return "run-" + slug, nil
}

func TestEnqueueAllContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	for _, slug := range []string{"brightermonday", "jobline"} {
		if _, err := m.UpsertSite(ctx, models.Site{Slug: slug}); err != nil {
			t.Fatal(err)
		}
	}
	rec := &recorder{fail: "brightermonday"}
	s := New(m, rec, "@every 1h")

	if n := s.enqueueAll(ctx); n != 1 {
		t.Fatalf("queued = %d, want 1", n)
	}
	if len(rec.slugs) != 1 || rec.slugs[0] != "jobline" {
		t.Fatalf("slugs = %v", rec.slugs)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(store.NewMemory(), &recorder{}, "every hour please")
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected spec error")
	}
}
