package pages

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
)

func newApp(m *store.Memory) *fiber.App {
	h := NewHandler(m, m)
	app := fiber.New()
	app.Get("/v1/pages", h.HandleList)
	app.Post("/v1/pages/:id/retry", h.HandleRetry)
	return app
}

func TestHandlerRetry(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	site, _ := m.UpsertSite(ctx, models.Site{Slug: "jobline"})
	_, _ = m.InsertPage(ctx, models.DiscoveredPage{URL: "https://x.example/job/1", SiteID: site.ID, Status: models.PagePending})
	_, _ = m.InsertPage(ctx, models.DiscoveredPage{URL: "https://x.example/job/2", SiteID: site.ID, Status: models.PagePending})
	list, _ := m.ListPages(ctx, store.PageFilter{})
	_ = m.FailPage(ctx, list[0].ID, "fetch: status 500")
	app := newApp(m)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/pages/"+list[1].ID+"/retry", nil))
	if err != nil || resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("retry pending page = %v, %v", resp.StatusCode, err)
	}
	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/pages/missing/retry", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("retry missing = %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/pages/"+list[0].ID+"/retry", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("retry error page = %d", resp.StatusCode)
	}
	page, _ := m.GetPage(ctx, list[0].ID)
	if page.Status != models.PagePending {
		t.Fatalf("status = %s", page.Status)
	}
}

func TestHandlerList(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	site, _ := m.UpsertSite(ctx, models.Site{Slug: "jobline"})
	other, _ := m.UpsertSite(ctx, models.Site{Slug: "brightermonday"})
	_, _ = m.InsertPage(ctx, models.DiscoveredPage{URL: "https://x.example/job/1", SiteID: site.ID, Status: models.PagePending})
	_, _ = m.InsertPage(ctx, models.DiscoveredPage{URL: "https://y.example/listings/2", SiteID: other.ID, Status: models.PagePending})
	app := newApp(m)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/pages?site=jobline&status=pending", nil))
	var body struct {
		Pages []models.DiscoveredPage `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Pages) != 1 || body.Pages[0].URL != "https://x.example/job/1" {
		t.Fatalf("pages = %+v", body.Pages)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/pages?status=bogus", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bogus status = %d", resp.StatusCode)
	}
}
