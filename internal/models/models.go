// Package models defines the rows the ingestion pipeline reads and writes.
package models

import "time"

// FetchStatus tracks the outcome of the last listing fetch for a site.
type FetchStatus string

const (
	FetchPending    FetchStatus = "pending"
	FetchInProgress FetchStatus = "in_progress"
	FetchSuccess    FetchStatus = "success"
	FetchFailed     FetchStatus = "failed"
)

// PageStatus is the lifecycle of a discovered detail page.
type PageStatus string

const (
	PagePending   PageStatus = "pending"
	PageCompleted PageStatus = "completed"
	PageError     PageStatus = "error"
)

// ParsePageStatus converts a raw string to a PageStatus.
func ParsePageStatus(s string) (PageStatus, bool) {
	switch st := PageStatus(s); st {
	case PagePending, PageCompleted, PageError:
		return st, true
	}
	return "", false
}

// PageStyle tells how the page number is placed in a listing URL.
type PageStyle string

const (
	PageStyleQuery PageStyle = "query"
	PageStylePath  PageStyle = "path"
)

// Site is one external job-listing source.
type Site struct {
	ID              string      `json:"id"`
	Slug            string      `json:"slug"`
	Name            string      `json:"name"`
	Adapter         string      `json:"adapter"`
	Origin          string      `json:"origin"`
	BaseURLTemplate string      `json:"base_url_template"`
	PageStyle       PageStyle   `json:"page_style"`
	CursorPage      int         `json:"cursor_page"`
	MaxPage         int         `json:"max_page"`
	LastFetchStatus FetchStatus `json:"last_fetch_status"`
	LastError       *string     `json:"last_error,omitempty"`
	LastFetchedAt   *time.Time  `json:"last_fetched_at,omitempty"`
	RawListingHTML  string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// DiscoveredPage is a candidate job URL found on a listing page.
type DiscoveredPage struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	SiteID        string     `json:"site_id"`
	TitleHint     string     `json:"title_hint"`
	Status        PageStatus `json:"status"`
	RawDetailHTML string     `json:"-"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type EmploymentStatus string

const (
	FullTime   EmploymentStatus = "Full Time"
	PartTime   EmploymentStatus = "Part Time"
	Contract   EmploymentStatus = "Contract"
	Internship EmploymentStatus = "Internship"
)

type Workplace string

const (
	Onsite Workplace = "Onsite"
	Remote Workplace = "Remote"
	Hybrid Workplace = "Hybrid"
)

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Both   Gender = "Both"
)

// PostingActive is the only status the pipeline ever writes.
const PostingActive = "Active"

// JobPosting is the normalized record produced from one detail page.
type JobPosting struct {
	ID                           string           `json:"id"`
	ExternalURL                  string           `json:"external_url"`
	SiteID                       string           `json:"site_id"`
	Title                        string           `json:"title"`
	ResponsibilitiesHTML         string           `json:"responsibilities_html"`
	Benefits                     string           `json:"benefits"`
	Details                      string           `json:"details"`
	CompanyName                  string           `json:"company_name,omitempty"`
	CompanyLogoURL               string           `json:"company_logo_url,omitempty"`
	DistrictID                   int64            `json:"district_id"`
	CategoryID                   int64            `json:"category_id"`
	CategoryText                 string           `json:"category_text"`
	EmploymentStatus             EmploymentStatus `json:"employment_status"`
	Workplace                    Workplace        `json:"workplace"`
	MinimumSalary                *float64         `json:"minimum_salary"`
	MaximumSalary                *float64         `json:"maximum_salary"`
	ShowSalary                   bool             `json:"show_salary"`
	Deadline                     time.Time        `json:"deadline"`
	VacanciesCount               int              `json:"vacancies_count"`
	MinAge                       *int             `json:"min_age"`
	MaxAge                       *int             `json:"max_age"`
	RequiredVideoCV              bool             `json:"required_video_cv"`
	Gender                       Gender           `json:"gender"`
	MinimumAcademicQualification string           `json:"minimum_academic_qualification"`
	Status                       string           `json:"status"`
	CreatedAt                    time.Time        `json:"created_at"`
}

// District is a read-only reference row owned by the job board.
type District struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a read-only reference row owned by the job board.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
