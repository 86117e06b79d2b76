package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/models"
	"jobcrawler/internal/reference"
)

type emptySource struct{}

func (emptySource) Districts(context.Context) ([]models.District, error)  { return nil, nil }
func (emptySource) Categories(context.Context) ([]models.Category, error) { return nil, nil }

type postingSet map[string]bool

func (p postingSet) PostingExists(_ context.Context, u string) (bool, error) { return p[u], nil }

func testCatalog(t *testing.T) *reference.Catalog {
	t.Helper()
	cat, err := reference.Load(context.Background(), emptySource{})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func districtID(t *testing.T, cat *reference.Catalog, name string) int64 {
	t.Helper()
	for _, d := range cat.Districts {
		if d.Name == name {
			return d.ID
		}
	}
	t.Fatalf("district %s not in catalog", name)
	return 0
}

func categoryID(t *testing.T, cat *reference.Catalog, name string) int64 {
	t.Helper()
	for _, r := range cat.Categories {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("category %s not in catalog", name)
	return 0
}

var fixedNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, existing postingSet) *Pipeline {
	return NewPipeline(testCatalog(t), existing, 30).WithClock(func() time.Time { return fixedNow })
}

var bmSite = models.Site{
	ID:              "site-bm",
	Slug:            "brightermonday",
	Adapter:         "brightermonday",
	Origin:          "https://www.brightermonday.co.ug",
	BaseURLTemplate: "https://www.brightermonday.co.ug/jobs",
	PageStyle:       models.PageStyleQuery,
	MaxPage:         5,
}

var joblineSite = models.Site{
	ID:              "site-jl",
	Slug:            "jobline",
	Adapter:         "jobline",
	Origin:          "https://www.jobline.example",
	BaseURLTemplate: "https://www.jobline.example/page/{page}",
	PageStyle:       models.PageStylePath,
	MaxPage:         10,
}

func mustParse(t *testing.T, html, u string) *document.Document {
	t.Helper()
	doc, err := document.Parse(html, u)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestBrighterMondayDiscover(t *testing.T) {
	html := `<html><body>
		<a href="/listings/accountant-abc123">Accountant</a>
		<a href="https://www.brightermonday.co.ug/listings/driver-x9">Driver</a>
		<a href="/listings/accountant-abc123">View job</a>
		<a href="/listings/nurse-77"><span>Registered  Nurse &amp; Midwife</span></a>
		<a href="/jobs?page=2">Next</a>
		<a href="/about-us">About</a>
		<a href="https://other.example/listings/spam">Elsewhere</a>
	</body></html>`
	got := BrighterMonday{}.Discover(bmSite, mustParse(t, html, bmSite.Origin))
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3: %+v", len(got), got)
	}
	if got[0].URL != "https://www.brightermonday.co.ug/listings/accountant-abc123" || got[0].TitleHint != "Accountant" {
		t.Errorf("first candidate = %+v", got[0])
	}
	if got[2].TitleHint != "Registered Nurse & Midwife" {
		t.Errorf("title hint = %q", got[2].TitleHint)
	}
}

func TestJoblineDiscover(t *testing.T) {
	html := `<html><body>
		<a href="/2025/01/accounts-assistant-jobs.html">Accounts Assistant</a>
		<a href="https://www.jobline.example/job/field-officer/">Field Officer</a>
		<a href="/vacancy/nurse-gulu">Nurse</a>
		<a href="/category/ngo-jobs/">NGO Jobs</a>
		<a href="/page/2">Older posts</a>
		<a href="/tag/kampala/">Kampala</a>
		<a href="/2025/01/">January</a>
		<a href="/job/">All jobs</a>
		<a href="#comments">Comments</a>
		<a href="mailto:hr@example.com">Email</a>
		<a href="/feed/">RSS</a>
	</body></html>`
	got := Jobline{}.Discover(joblineSite, mustParse(t, html, joblineSite.Origin))
	want := []string{
		"https://www.jobline.example/2025/01/accounts-assistant-jobs.html",
		"https://www.jobline.example/job/field-officer/",
		"https://www.jobline.example/vacancy/nurse-gulu",
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %+v, want %v", got, want)
	}
	for i, w := range want {
		if got[i].URL != w {
			t.Errorf("candidate %d = %s, want %s", i, got[i].URL, w)
		}
	}
}

func TestListingURL(t *testing.T) {
	cases := []struct {
		site models.Site
		page int
		want string
	}{
		{bmSite, 3, "https://www.brightermonday.co.ug/jobs?page=3"},
		{joblineSite, 2, "https://www.jobline.example/page/2"},
		{models.Site{BaseURLTemplate: "https://x.example/jobs/", PageStyle: models.PageStylePath}, 4, "https://x.example/jobs/4"},
		{models.Site{BaseURLTemplate: "https://x.example/jobs?sort=new", PageStyle: models.PageStyleQuery}, 1, "https://x.example/jobs?page=1&sort=new"},
	}
	for _, c := range cases {
		if got := ListingURL(c.site, c.page); got != c.want {
			t.Errorf("ListingURL(%s, %d) = %s, want %s", c.site.BaseURLTemplate, c.page, got, c.want)
		}
	}
}

const detailHTML = `<html><head><title>Senior Accountant | BrighterMonday</title></head><body>
<nav><a href="/">Home</a></nav>
<article class="job__details">
  <h1>Senior Accountant</h1>
  <a class="job-category" href="/jobs/accounting-auditing-finance">Accounting, Auditing &amp; Finance</a>
  <p>Acme Uganda Limited is seeking a qualified Senior Accountant to join the finance team.</p>
  <p>Duty Station: Gulu</p>
  <h3>Key Responsibilities</h3>
  <ul>
    <li>Prepare monthly management accounts and reports.</li>
    <li>Reconcile supplier statements every week.</li>
  </ul>
  <h3>Qualifications</h3>
  <ul>
    <li>Bachelor's degree in Accounting or Finance.</li>
    <li>At least 5 years of relevant experience.</li>
  </ul>
  <p>Salary: USh 3,000,000 - 4,500,000 per month</p>
  <p>Medical insurance and transport allowance provided.</p>
  <p>This is a fixed term contract of two years.</p>
  <p>Deadline: 15 March 2025</p>
  <p>Share this job on Facebook and WhatsApp</p>
</article>
</body></html>`

func TestExtract_FullPage(t *testing.T) {
	p := newTestPipeline(t, postingSet{})
	cat := p.catalog
	const src = "https://www.brightermonday.co.ug/listings/senior-accountant-1"

	res, err := p.Extract(context.Background(), BrighterMonday{}, bmSite, detailHTML, src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.AlreadyImported || res.Posting == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	got := res.Posting
	if got.Title != "Senior Accountant" {
		t.Errorf("title = %q", got.Title)
	}
	if got.ExternalURL != src || got.SiteID != bmSite.ID || got.Status != models.PostingActive {
		t.Errorf("identity fields = %q %q %q", got.ExternalURL, got.SiteID, got.Status)
	}
	if !got.ShowSalary || got.MinimumSalary == nil || *got.MinimumSalary != 3000000 || *got.MaximumSalary != 4500000 {
		t.Errorf("salary = %v %v %v", got.MinimumSalary, got.MaximumSalary, got.ShowSalary)
	}
	if want := districtID(t, cat, "Gulu"); got.DistrictID != want {
		t.Errorf("district = %d, want %d", got.DistrictID, want)
	}
	if want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC); !got.Deadline.Equal(want) {
		t.Errorf("deadline = %s", got.Deadline)
	}
	if want := categoryID(t, cat, "Accounting & Finance"); got.CategoryID != want {
		t.Errorf("category = %d, want %d", got.CategoryID, want)
	}
	if got.CategoryText != "Accounting, Auditing & Finance" {
		t.Errorf("category text = %q", got.CategoryText)
	}
	if got.EmploymentStatus != models.Contract {
		t.Errorf("employment = %s", got.EmploymentStatus)
	}
	if got.MinimumAcademicQualification != "Bachelor's Degree" {
		t.Errorf("qualification = %s", got.MinimumAcademicQualification)
	}
	html := got.ResponsibilitiesHTML
	for _, want := range []string{"Key Responsibilities", "Prepare monthly management accounts", "Qualifications", "Bachelor&#39;s degree in Accounting"} {
		if !strings.Contains(html, want) {
			t.Errorf("responsibilities html missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(strings.ToLower(html), "facebook") {
		t.Errorf("boilerplate leaked into html:\n%s", html)
	}
	if strings.Index(html, "Key Responsibilities") > strings.Index(html, "Qualifications") {
		t.Errorf("sections out of order:\n%s", html)
	}
	if !strings.Contains(got.Benefits, "Medical insurance") {
		t.Errorf("benefits = %q", got.Benefits)
	}
	if !strings.Contains(got.Details, "Reconcile supplier statements") {
		t.Errorf("details = %q", got.Details)
	}
	if !strings.HasSuffix(got.Details, "**Experience:** 5 years") {
		t.Errorf("experience hint missing from details: %q", got.Details)
	}
}

func TestExtract_TitleFallbackAndDefaults(t *testing.T) {
	p := newTestPipeline(t, postingSet{})
	html := `<html><body><div class="job__details"><p>Send your application to the office as soon as you can.</p></div></body></html>`

	res, err := p.Extract(context.Background(), BrighterMonday{}, bmSite, html, "https://www.brightermonday.co.ug/listings/x")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := res.Posting
	if got.Title != UntitledJob {
		t.Errorf("title = %q, want %q", got.Title, UntitledJob)
	}
	if want := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC); !got.Deadline.Equal(want) {
		t.Errorf("deadline = %s, want today+30", got.Deadline)
	}
	if got.DistrictID != p.catalog.DefaultDistrictID {
		t.Errorf("district = %d, want default", got.DistrictID)
	}
	if got.CategoryID != p.catalog.DefaultCategoryID || got.CategoryText != "General" {
		t.Errorf("category = %d %q, want default", got.CategoryID, got.CategoryText)
	}
	if got.ShowSalary || got.MinimumSalary != nil {
		t.Errorf("salary should be empty")
	}
	if got.EmploymentStatus != models.FullTime || got.Workplace != models.Onsite || got.Gender != models.Both || got.VacanciesCount != 1 {
		t.Errorf("defaults = %s %s %s %d", got.EmploymentStatus, got.Workplace, got.Gender, got.VacanciesCount)
	}
	if !strings.Contains(got.ResponsibilitiesHTML, "Send your application") {
		t.Errorf("fallback block missing: %q", got.ResponsibilitiesHTML)
	}
}

func TestExtract_AlreadyImported(t *testing.T) {
	const src = "https://www.brightermonday.co.ug/listings/dup"
	p := newTestPipeline(t, postingSet{src: true})
	res, err := p.Extract(context.Background(), BrighterMonday{}, bmSite, detailHTML, src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.AlreadyImported || res.Posting != nil {
		t.Fatalf("result = %+v, want already imported", res)
	}
}

func TestExtract_ParseError(t *testing.T) {
	p := newTestPipeline(t, postingSet{})
	_, err := p.Extract(context.Background(), BrighterMonday{}, bmSite, "   ", "https://www.brightermonday.co.ug/listings/empty")
	var perr *document.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

type panickyAdapter struct{ BrighterMonday }

func (panickyAdapter) Profile() Profile {
	return Profile{Title: []TextStrategy{func(*document.Document) string { panic("boom") }}}
}

func TestExtract_RecoversPanic(t *testing.T) {
	p := newTestPipeline(t, postingSet{})
	res, err := p.Extract(context.Background(), panickyAdapter{}, bmSite, detailHTML, "https://www.brightermonday.co.ug/listings/p")
	var eerr *ExtractionError
	if !errors.As(err, &eerr) {
		t.Fatalf("want ExtractionError, got %v", err)
	}
	if eerr.Stage != "title" || res.Posting != nil {
		t.Fatalf("stage = %s, posting = %+v", eerr.Stage, res.Posting)
	}
}

func TestExtract_JoblineKeywordCategory(t *testing.T) {
	p := newTestPipeline(t, postingSet{})
	html := `<html><body><article>
		<h1 class="entry-title">Software Developer Job at Kasese Tech</h1>
		<div class="entry-content">
			<p>Organisation: Kasese Tech Limited</p>
			<p>Location: Kasese</p>
			<p>The developer will build web applications and maintain the database and API.</p>
			<p>Females only are encouraged to apply; female only.</p>
			<p>Deadline: 28/02/2025</p>
		</div>
	</article></body></html>`
	res, err := p.Extract(context.Background(), Jobline{}, joblineSite, html, "https://www.jobline.example/2025/01/software-developer.html")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := res.Posting
	if want := categoryID(t, p.catalog, "Information Technology"); got.CategoryID != want {
		t.Errorf("category = %d, want %d", got.CategoryID, want)
	}
	if got.CompanyName != "Kasese Tech Limited" {
		t.Errorf("company = %q", got.CompanyName)
	}
	if want := districtID(t, p.catalog, "Kasese"); got.DistrictID != want {
		t.Errorf("district = %d, want %d", got.DistrictID, want)
	}
	if got.Gender != models.Female {
		t.Errorf("gender = %s", got.Gender)
	}
	if want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC); !got.Deadline.Equal(want) {
		t.Errorf("deadline = %s", got.Deadline)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	if a, err := r.Get("jobline"); err != nil || a.Kind() != "jobline" {
		t.Fatalf("Get(jobline) = %v, %v", a, err)
	}
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unknown adapter")
	}
}
