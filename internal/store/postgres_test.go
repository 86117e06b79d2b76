package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobcrawler/internal/models"
)

// newTestPostgres connects to TEST_DATABASE_URL and runs the migrations.
// Rows are keyed by a per-test suffix so runs can share one database.
func newTestPostgres(t *testing.T) (*Postgres, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pg, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	t.Cleanup(pg.Close)
	if err := pg.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return pg, uuid.NewString()[:8]
}

func seedPostgresSite(t *testing.T, pg *Postgres, suffix string) models.Site {
	t.Helper()
	site, err := pg.UpsertSite(context.Background(), models.Site{
		Slug:            "jobline-" + suffix,
		Name:            "Jobline",
		Adapter:         "jobline",
		Origin:          "https://www.joblineuganda.com",
		BaseURLTemplate: "https://www.joblineuganda.com/page/{page}",
		PageStyle:       models.PageStylePath,
		MaxPage:         3,
	})
	if err != nil {
		t.Fatalf("UpsertSite: %v", err)
	}
	return site
}

func TestPostgres_UpsertSiteKeepsCursor(t *testing.T) {
	ctx := context.Background()
	pg, suffix := newTestPostgres(t)
	site := seedPostgresSite(t, pg, suffix)
	if _, err := uuid.Parse(site.ID); err != nil {
		t.Fatalf("site id %q is not a uuid", site.ID)
	}
	if site.LastFetchStatus != models.FetchPending {
		t.Fatalf("status = %s", site.LastFetchStatus)
	}
	if err := pg.SaveCursor(ctx, site.ID, 2); err != nil {
		t.Fatalf("SaveCursor: %v", err)
	}

	again, err := pg.UpsertSite(ctx, models.Site{
		Slug: site.Slug, Name: "Jobline UG", Adapter: "jobline", Origin: site.Origin,
		BaseURLTemplate: site.BaseURLTemplate, PageStyle: site.PageStyle, MaxPage: 9,
	})
	if err != nil {
		t.Fatalf("UpsertSite: %v", err)
	}
	if again.ID != site.ID || again.CursorPage != 2 || again.MaxPage != 9 || again.Name != "Jobline UG" {
		t.Fatalf("unexpected site after upsert: %+v", again)
	}
	if _, err := pg.GetSite(ctx, "missing-"+suffix); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSite(missing) = %v, want ErrNotFound", err)
	}
}

func TestPostgres_InsertPageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pg, suffix := newTestPostgres(t)
	site := seedPostgresSite(t, pg, suffix)
	first := models.DiscoveredPage{URL: "https://x.example/" + suffix + "/job/1", SiteID: site.ID, Status: models.PagePending}
	second := models.DiscoveredPage{URL: "https://x.example/" + suffix + "/job/2", SiteID: site.ID, Status: models.PagePending}

	for _, p := range []models.DiscoveredPage{first, second} {
		if ok, err := pg.InsertPage(ctx, p); err != nil || !ok {
			t.Fatalf("insert %s = %v, %v", p.URL, ok, err)
		}
	}
	if ok, err := pg.InsertPage(ctx, first); err != nil || ok {
		t.Fatalf("duplicate insert = %v, %v; want false, nil", ok, err)
	}

	pages, err := pg.ListPages(ctx, PageFilter{SiteID: site.ID})
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 2 || pages[0].URL != first.URL || pages[1].URL != second.URL {
		t.Fatalf("pages = %+v", pages)
	}
	if pages[0].CreatedAt.Year() < 2000 || pages[0].ID == "" {
		t.Fatalf("page defaults not applied: %+v", pages[0])
	}
}

func TestPostgres_PendingPagesRetryPolicy(t *testing.T) {
	ctx := context.Background()
	pg, suffix := newTestPostgres(t)
	site := seedPostgresSite(t, pg, suffix)
	for _, u := range []string{"/job/1", "/job/2", "/job/3"} {
		if _, err := pg.InsertPage(ctx, models.DiscoveredPage{URL: "https://x.example/" + suffix + u, SiteID: site.ID, Status: models.PagePending}); err != nil {
			t.Fatal(err)
		}
	}
	all, _ := pg.ListPages(ctx, PageFilter{SiteID: site.ID})
	// job/1 failed once, job/2 failed twice.
	_ = pg.StartPageAttempt(ctx, all[0].ID)
	_ = pg.FailPage(ctx, all[0].ID, "fetch: status 500")
	_ = pg.StartPageAttempt(ctx, all[1].ID)
	_ = pg.StartPageAttempt(ctx, all[1].ID)
	_ = pg.FailPage(ctx, all[1].ID, "fetch: status 500")

	pending, err := pg.PendingPages(ctx, PendingQuery{SiteID: site.ID})
	if err != nil || len(pending) != 1 || pending[0].ID != all[2].ID {
		t.Fatalf("pending only = %+v, %v", pending, err)
	}
	pending, err = pg.PendingPages(ctx, PendingQuery{SiteID: site.ID, IncludeErrored: true, MaxAttempts: 2})
	if err != nil || len(pending) != 2 || pending[0].ID != all[0].ID {
		t.Fatalf("with retries = %+v, %v", pending, err)
	}
	pending, _ = pg.PendingPages(ctx, PendingQuery{SiteID: site.ID, IncludeErrored: true, MaxAttempts: 3, Limit: 1})
	if len(pending) != 1 {
		t.Fatalf("limit ignored: %d", len(pending))
	}
}

func TestPostgres_CompletePageInsertsPosting(t *testing.T) {
	ctx := context.Background()
	pg, suffix := newTestPostgres(t)
	site := seedPostgresSite(t, pg, suffix)
	if err := pg.SeedReference(ctx, []models.District{{Name: "Kampala"}}, []models.Category{{Name: "Accounting"}}); err != nil {
		t.Fatalf("SeedReference: %v", err)
	}
	districts, _ := pg.Districts(ctx)
	categories, _ := pg.Categories(ctx)
	if len(districts) == 0 || len(categories) == 0 {
		t.Fatal("reference tables empty after seed")
	}

	url := "https://x.example/" + suffix + "/job/accountant"
	if _, err := pg.InsertPage(ctx, models.DiscoveredPage{URL: url, SiteID: site.ID, Status: models.PagePending}); err != nil {
		t.Fatal(err)
	}
	pages, _ := pg.ListPages(ctx, PageFilter{SiteID: site.ID})
	_ = pg.FailPage(ctx, pages[0].ID, "extract: title")

	posting := &models.JobPosting{
		ExternalURL:                  url,
		SiteID:                       site.ID,
		Title:                        "Accountant",
		DistrictID:                   districts[0].ID,
		CategoryID:                   categories[0].ID,
		EmploymentStatus:             models.FullTime,
		Workplace:                    models.Onsite,
		Deadline:                     time.Now().AddDate(0, 0, 30).UTC().Truncate(24 * time.Hour),
		VacanciesCount:               1,
		Gender:                       models.Both,
		MinimumAcademicQualification: "Bachelor's Degree",
		Status:                       "Active",
	}
	created, err := pg.CompletePage(ctx, pages[0].ID, posting)
	if err != nil || !created {
		t.Fatalf("CompletePage = %v, %v", created, err)
	}
	page, _ := pg.GetPage(ctx, pages[0].ID)
	if page.Status != models.PageCompleted || page.ErrorMessage != nil {
		t.Fatalf("page = %+v", page)
	}
	got, err := pg.GetPostingByURL(ctx, url)
	if err != nil || got.Title != "Accountant" || got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("posting = %+v, %v", got, err)
	}

	created, err = pg.CompletePage(ctx, pages[0].ID, posting)
	if err != nil || created {
		t.Fatalf("second CompletePage = %v, %v; want false, nil", created, err)
	}
	if exists, _ := pg.PostingExists(ctx, url); !exists {
		t.Fatal("PostingExists = false")
	}
}
