package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobcrawler/internal/core/document"
	"jobcrawler/internal/core/normalize"
	"jobcrawler/internal/logger"
	"jobcrawler/internal/models"
	"jobcrawler/internal/reference"
	"jobcrawler/internal/utils/markdown"
)

// UntitledJob is the title used when no strategy yields one.
const UntitledJob = "Untitled Job Position"

// ExtractionError wraps a failure inside one extraction stage.
type ExtractionError struct {
	URL   string
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PostingLookup answers the idempotency question for stage 1.
type PostingLookup interface {
	PostingExists(ctx context.Context, externalURL string) (bool, error)
}

// Result of one extraction. AlreadyImported is not an error.
type Result struct {
	Posting         *models.JobPosting
	AlreadyImported bool
}

// Pipeline runs the shared extraction stages against a site's Profile.
type Pipeline struct {
	catalog      *reference.Catalog
	postings     PostingLookup
	deadlineDays int
	now          func() time.Time
	log          *logger.Logger
}

func NewPipeline(catalog *reference.Catalog, postings PostingLookup, deadlineDays int) *Pipeline {
	if deadlineDays <= 0 {
		deadlineDays = 30
	}
	return &Pipeline{
		catalog:      catalog,
		postings:     postings,
		deadlineDays: deadlineDays,
		now:          time.Now,
		log:          logger.New("Extractor"),
	}
}

// WithClock replaces the time source. Used by tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Extract turns a detail page into a JobPosting. It never returns a partial
// posting: any stage failure, including a panic, yields an error and no
// posting. The caller persists the result.
func (p *Pipeline) Extract(ctx context.Context, a Adapter, site models.Site, html, sourceURL string) (res Result, err error) {
	exists, err := p.postings.PostingExists(ctx, sourceURL)
	if err != nil {
		return Result{}, &ExtractionError{URL: sourceURL, Stage: "idempotency", Err: err}
	}
	if exists {
		p.log.LogDebugf("already imported %s", sourceURL)
		return Result{AlreadyImported: true}, nil
	}

	doc, err := document.Parse(html, sourceURL)
	if err != nil {
		return Result{}, err
	}

	stage := "title"
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &ExtractionError{URL: sourceURL, Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	prof := a.Profile()
	now := p.now().UTC()
	posting := &models.JobPosting{
		ID:          uuid.NewString(),
		ExternalURL: sourceURL,
		SiteID:      site.ID,
		Status:      models.PostingActive,
		CreatedAt:   now,
	}

	posting.Title = firstOf(doc, prof.Title)
	if posting.Title == "" {
		posting.Title = UntitledJob
	}

	stage = "content"
	c := harvest(doc, prof)
	b := classifyAll(c.blocks)
	if b.usable() {
		posting.ResponsibilitiesHTML = assemble(b)
	} else if fallback := largestBlock(c.region); fallback != "" {
		posting.ResponsibilitiesHTML = fallback
	} else {
		posting.ResponsibilitiesHTML = assemble(b)
	}
	posting.Benefits = strings.Join(b[bucketBenefit], "\n")
	posting.Details = markdown.SelectionToMarkdown(c.region)

	stage = "salary"
	sal := p.salary(doc, prof, c)
	posting.MinimumSalary, posting.MaximumSalary, posting.ShowSalary = sal.Min, sal.Max, sal.Show

	stage = "location"
	location := firstOf(doc, append(append([]TextStrategy{}, prof.Location...), LocationLabel()))
	if location == "" {
		location = normalize.LocationFromText(strings.Join(c.lines, "\n"))
	}
	posting.DistrictID = normalize.MatchDistrict(location, p.catalog.Districts, p.catalog.DefaultDistrictID)

	stage = "fields"
	fieldText := posting.Title + "\n" + strings.Join(c.regionLines, "\n")
	posting.EmploymentStatus = normalize.EmploymentStatus(fieldText)
	posting.Workplace = normalize.Workplace(fieldText)
	posting.Gender = normalize.Gender(fieldText)
	posting.MinAge, posting.MaxAge = normalize.Ages(fieldText)
	posting.MinimumAcademicQualification = normalize.MinimumQualification(fieldText)
	posting.VacanciesCount = normalize.Vacancies(fieldText)
	posting.RequiredVideoCV = normalize.RequiresVideoCV(fieldText)
	if exp := normalize.Experience(fieldText); exp != "" {
		posting.Details += "\n\n**Experience:** " + exp
	}

	stage = "deadline"
	posting.Deadline = p.deadline(doc, prof, c, now)

	stage = "category"
	posting.CategoryID, posting.CategoryText = p.category(doc, prof, posting.Title+"\n"+c.text())

	stage = "company"
	posting.CompanyName = firstOf(doc, append(append([]TextStrategy{}, prof.Company...), OrganisationLabel()))
	posting.CompanyLogoURL = firstOf(doc, prof.Logo)

	return Result{Posting: posting}, nil
}

// salary scans salary-flagged regions in order; the first that parses wins.
func (p *Pipeline) salary(doc *document.Document, prof Profile, c content) normalize.Salary {
	for _, s := range prof.Salary {
		if v := s(doc); v != "" {
			if sal := normalize.ParseSalary(v); sal.Show {
				return sal
			}
		}
	}
	for _, line := range c.lines {
		if !salaryFlagged(line) {
			continue
		}
		if sal := normalize.ParseSalary(line); sal.Show {
			return sal
		}
	}
	return normalize.Salary{}
}

var salaryFlagTerms = []string{"salary", "remuneration", "pay", "wage", "wages", "compensation", "ugx", "ush", "ushs", "shs", "usd"}

func salaryFlagged(line string) bool {
	return normalize.ContainsAny(line, salaryFlagTerms) || strings.Contains(line, "$") || strings.Contains(line, "/=")
}

func (p *Pipeline) deadline(doc *document.Document, prof Profile, c content, now time.Time) time.Time {
	for _, s := range append(append([]TextStrategy{}, prof.Deadline...), DeadlineLabel()) {
		if v := s(doc); v != "" {
			if t, ok := normalize.ParseDate(v); ok {
				return t
			}
		}
	}
	return normalize.ParseDeadline(strings.Join(c.lines, "\n"), now, p.deadlineDays)
}

// category tries the page's taxonomy links, then keyword scoring, then the
// default. The raw link label is kept as the category text either way.
func (p *Pipeline) category(doc *document.Document, prof Profile, text string) (int64, string) {
	var label string
	for _, sel := range prof.CategoryLinks {
		if label = doc.FirstText(sel); label != "" {
			break
		}
	}
	if label != "" {
		if id, ok := normalize.MatchCategoryLabel(label, p.catalog.Categories); ok {
			return id, label
		}
	}
	if rule, ok := normalize.ClassifyByKeywords(text, p.catalog.Categories); ok {
		if label == "" {
			label = rule.Name
		}
		return rule.ID, label
	}
	if label == "" {
		label = p.catalog.CategoryName(p.catalog.DefaultCategoryID)
	}
	return p.catalog.DefaultCategoryID, label
}
