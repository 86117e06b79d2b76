// Package pages tracks discovered detail pages from enqueue to a terminal
// status.
package pages

import (
	"context"
	"fmt"

	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/core/fetch"
	"jobcrawler/internal/logger"
	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
	"jobcrawler/internal/telemetry"
)

// Outcome of processing one page.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeAlreadyImported Outcome = "already_imported"
	OutcomeError           Outcome = "error"
)

// RetryPolicy decides whether error pages are picked up again.
type RetryPolicy struct {
	RetryErrored bool
	MaxAttempts  int
}

type Manager struct {
	pages    store.PageStore
	fetcher  fetch.Getter
	pipeline *adapter.Pipeline
	retry    RetryPolicy
	log      *logger.Logger
}

func NewManager(pages store.PageStore, fetcher fetch.Getter, pipeline *adapter.Pipeline, retry RetryPolicy) *Manager {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	return &Manager{pages: pages, fetcher: fetcher, pipeline: pipeline, retry: retry, log: logger.New("Pages")}
}

// Enqueue records a pending page. Known urls are a no-op and report false.
func (m *Manager) Enqueue(ctx context.Context, site models.Site, c adapter.Candidate) (bool, error) {
	return m.pages.InsertPage(ctx, models.DiscoveredPage{
		URL:       c.URL,
		SiteID:    site.ID,
		TitleHint: c.TitleHint,
		Status:    models.PagePending,
	})
}

// EnqueueAll enqueues every candidate and returns how many were new.
func (m *Manager) EnqueueAll(ctx context.Context, site models.Site, cs []adapter.Candidate) (int, error) {
	created := 0
	for _, c := range cs {
		ok, err := m.Enqueue(ctx, site, c)
		if err != nil {
			return created, fmt.Errorf("enqueue %s: %w", c.URL, err)
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		telemetry.PagesDiscovered.WithLabelValues(site.Slug).Add(float64(created))
	}
	return created, nil
}

// Pending returns the pages a cycle for site should process, oldest first.
func (m *Manager) Pending(ctx context.Context, site models.Site, limit int) ([]models.DiscoveredPage, error) {
	return m.pages.PendingPages(ctx, store.PendingQuery{
		SiteID:         site.ID,
		IncludeErrored: m.retry.RetryErrored,
		MaxAttempts:    m.retry.MaxAttempts,
		Limit:          limit,
	})
}

// FetchAndProcess fetches one page and hands it to the extraction pipeline.
// Page-level failures are recorded on the row and reported as OutcomeError
// with a nil error; the returned error is reserved for store failures and
// cancellation, in which case the page stays as it was.
func (m *Manager) FetchAndProcess(ctx context.Context, page models.DiscoveredPage, site models.Site, a adapter.Adapter) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := m.pages.StartPageAttempt(ctx, page.ID); err != nil {
		return "", fmt.Errorf("start attempt %s: %w", page.URL, err)
	}

	resp, err := m.fetcher.Get(ctx, "detail", page.URL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return m.fail(ctx, page, site, err)
	}
	if err := m.pages.SavePageHTML(ctx, page.ID, resp.Body); err != nil {
		return "", fmt.Errorf("save html %s: %w", page.URL, err)
	}

	res, err := m.pipeline.Extract(ctx, a, site, resp.Body, page.URL)
	if err != nil {
		return m.fail(ctx, page, site, err)
	}

	if res.AlreadyImported {
		if _, err := m.pages.CompletePage(ctx, page.ID, nil); err != nil {
			return "", fmt.Errorf("complete %s: %w", page.URL, err)
		}
		m.log.LogInfof("already imported %s", page.URL)
		telemetry.PagesProcessed.WithLabelValues(site.Slug, string(OutcomeAlreadyImported)).Inc()
		return OutcomeAlreadyImported, nil
	}

	created, err := m.pages.CompletePage(ctx, page.ID, res.Posting)
	if err != nil {
		return "", fmt.Errorf("complete %s: %w", page.URL, err)
	}
	if created {
		telemetry.PostingsCreated.WithLabelValues(site.Slug).Inc()
		m.log.Info().Str("site", site.Slug).Str("url", page.URL).Str("title", res.Posting.Title).Msg("posting created")
	} else {
		// Another worker inserted the same external url first.
		m.log.LogInfof("posting for %s already existed at insert", page.URL)
	}
	telemetry.PagesProcessed.WithLabelValues(site.Slug, string(OutcomeCompleted)).Inc()
	return OutcomeCompleted, nil
}

func (m *Manager) fail(ctx context.Context, page models.DiscoveredPage, site models.Site, cause error) (Outcome, error) {
	m.log.LogWarnf("page %s failed: %v", page.URL, cause)
	if err := m.pages.FailPage(ctx, page.ID, cause.Error()); err != nil {
		return "", fmt.Errorf("fail %s: %w", page.URL, err)
	}
	telemetry.PagesProcessed.WithLabelValues(site.Slug, string(OutcomeError)).Inc()
	return OutcomeError, nil
}
