package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobcrawler/internal/models"
)

// Postgres wraps pgxpool for persistence.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a pooled connection to Postgres.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const siteColumns = `id::text, slug, name, adapter, origin, base_url_template, page_style, cursor_page, max_page,
	last_fetch_status, last_error, last_fetched_at, raw_listing_html, created_at, updated_at`

func scanSite(row pgx.Row) (models.Site, error) {
	var (
		site      models.Site
		lastErr   pgtype.Text
		fetchedAt pgtype.Timestamptz
	)
	err := row.Scan(&site.ID, &site.Slug, &site.Name, &site.Adapter, &site.Origin, &site.BaseURLTemplate, &site.PageStyle,
		&site.CursorPage, &site.MaxPage, &site.LastFetchStatus, &lastErr, &fetchedAt, &site.RawListingHTML,
		&site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return models.Site{}, err
	}
	site.LastError = textPtr(lastErr)
	if fetchedAt.Valid {
		t := fetchedAt.Time
		site.LastFetchedAt = &t
	}
	return site, nil
}

// UpsertSite keeps the id, cursor and fetch state of an existing slug.
func (s *Postgres) UpsertSite(ctx context.Context, site models.Site) (models.Site, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO sites (id, slug, name, adapter, origin, base_url_template, page_style, max_page)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			adapter = EXCLUDED.adapter,
			origin = EXCLUDED.origin,
			base_url_template = EXCLUDED.base_url_template,
			page_style = EXCLUDED.page_style,
			max_page = EXCLUDED.max_page,
			updated_at = NOW()
		RETURNING `+siteColumns,
		orNewID(site.ID), site.Slug, site.Name, site.Adapter, site.Origin, site.BaseURLTemplate, site.PageStyle, site.MaxPage)
	out, err := scanSite(row)
	if err != nil {
		return models.Site{}, fmt.Errorf("upsert site %s: %w", site.Slug, err)
	}
	return out, nil
}

func (s *Postgres) ListSites(ctx context.Context) ([]models.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var out []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

func (s *Postgres) GetSite(ctx context.Context, slug string) (models.Site, error) {
	site, err := scanSite(s.pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Site{}, fmt.Errorf("site %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return models.Site{}, fmt.Errorf("get site %s: %w", slug, err)
	}
	return site, nil
}

func (s *Postgres) SaveCursor(ctx context.Context, siteID string, page int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sites SET cursor_page = $2, updated_at = NOW() WHERE id = $1`, siteID, page)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	return nil
}

func (s *Postgres) RecordListing(ctx context.Context, siteID string, r ListingResult) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sites
		SET last_fetch_status = $2, raw_listing_html = $3, last_error = $4, last_fetched_at = $5, updated_at = NOW()
		WHERE id = $1
	`, siteID, r.Status, r.HTML, r.Error, r.At)
	if err != nil {
		return fmt.Errorf("record listing: %w", err)
	}
	return nil
}

const pageColumns = `id::text, url, site_id::text, title_hint, status, raw_detail_html, error_message, attempts, created_at, updated_at`

func scanPage(row pgx.Row) (models.DiscoveredPage, error) {
	var (
		p      models.DiscoveredPage
		errMsg pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.URL, &p.SiteID, &p.TitleHint, &p.Status, &p.RawDetailHTML, &errMsg, &p.Attempts, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.DiscoveredPage{}, err
	}
	p.ErrorMessage = textPtr(errMsg)
	return p, nil
}

func collectPages(rows pgx.Rows) ([]models.DiscoveredPage, error) {
	defer rows.Close()
	var out []models.DiscoveredPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) InsertPage(ctx context.Context, p models.DiscoveredPage) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO discovered_pages (id, url, site_id, title_hint, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, clock_timestamp()), COALESCE($6, clock_timestamp()))
		ON CONFLICT (url) DO NOTHING
	`, orNewID(p.ID), p.URL, p.SiteID, p.TitleHint, p.Status, timestampOrNull(p.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("insert page: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Postgres) GetPage(ctx context.Context, id string) (models.DiscoveredPage, error) {
	p, err := scanPage(s.pool.QueryRow(ctx, `SELECT `+pageColumns+` FROM discovered_pages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DiscoveredPage{}, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.DiscoveredPage{}, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListPages(ctx context.Context, f PageFilter) ([]models.DiscoveredPage, error) {
	var (
		where []string
		args  []any
	)
	if f.SiteID != "" {
		args = append(args, f.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + pageColumns + ` FROM discovered_pages`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, url"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return collectPages(rows)
}

func (s *Postgres) PendingPages(ctx context.Context, q PendingQuery) ([]models.DiscoveredPage, error) {
	limit := any(nil)
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+pageColumns+` FROM discovered_pages
		WHERE site_id = $1
		  AND (status = 'pending' OR ($2 AND status = 'error' AND attempts < $3))
		ORDER BY created_at, url
		LIMIT $4
	`, q.SiteID, q.IncludeErrored, q.MaxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("pending pages: %w", err)
	}
	return collectPages(rows)
}

func (s *Postgres) StartPageAttempt(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE discovered_pages SET attempts = attempts + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("start attempt: %w", err)
	}
	return nil
}

func (s *Postgres) SavePageHTML(ctx context.Context, id, html string) error {
	_, err := s.pool.Exec(ctx, `UPDATE discovered_pages SET raw_detail_html = $2, updated_at = NOW() WHERE id = $1`, id, html)
	if err != nil {
		return fmt.Errorf("save page html: %w", err)
	}
	return nil
}

func (s *Postgres) FailPage(ctx context.Context, id, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE discovered_pages SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1
	`, id, models.PageError, message)
	if err != nil {
		return fmt.Errorf("fail page: %w", err)
	}
	return nil
}

func (s *Postgres) CompletePage(ctx context.Context, id string, posting *models.JobPosting) (bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	created := false
	if posting != nil {
		tag, err := tx.Exec(ctx, `
			INSERT INTO job_postings (
				id, external_url, site_id, title, responsibilities_html, benefits, details, company_name, company_logo_url,
				district_id, category_id, category_text, employment_status, workplace, minimum_salary, maximum_salary,
				show_salary, deadline, vacancies_count, min_age, max_age, required_video_cv, gender,
				minimum_academic_qualification, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, COALESCE($26, NOW()))
			ON CONFLICT (external_url) DO NOTHING
		`, orNewID(posting.ID), posting.ExternalURL, posting.SiteID, posting.Title, posting.ResponsibilitiesHTML, posting.Benefits,
			posting.Details, posting.CompanyName, posting.CompanyLogoURL, posting.DistrictID, posting.CategoryID,
			posting.CategoryText, posting.EmploymentStatus, posting.Workplace, posting.MinimumSalary, posting.MaximumSalary,
			posting.ShowSalary, posting.Deadline, posting.VacanciesCount, posting.MinAge, posting.MaxAge,
			posting.RequiredVideoCV, posting.Gender, posting.MinimumAcademicQualification, posting.Status, timestampOrNull(posting.CreatedAt))
		if err != nil {
			return false, fmt.Errorf("insert posting: %w", err)
		}
		created = tag.RowsAffected() == 1
	}

	if _, err := tx.Exec(ctx, `
		UPDATE discovered_pages SET status = $2, error_message = NULL, updated_at = NOW() WHERE id = $1
	`, id, models.PageCompleted); err != nil {
		return false, fmt.Errorf("complete page: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *Postgres) ResetPage(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE discovered_pages SET status = $2, error_message = NULL, attempts = 0, updated_at = NOW() WHERE id = $1
	`, id, models.PagePending)
	if err != nil {
		return fmt.Errorf("reset page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Postgres) PostingExists(ctx context.Context, externalURL string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM job_postings WHERE external_url = $1)`, externalURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("posting exists: %w", err)
	}
	return exists, nil
}

func (s *Postgres) GetPostingByURL(ctx context.Context, externalURL string) (models.JobPosting, error) {
	var (
		p              models.JobPosting
		minSal, maxSal pgtype.Float8
		minAge, maxAge pgtype.Int4
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, external_url, site_id::text, title, responsibilities_html, benefits, details, company_name,
			company_logo_url, district_id, category_id, category_text, employment_status, workplace, minimum_salary,
			maximum_salary, show_salary, deadline, vacancies_count, min_age, max_age, required_video_cv, gender,
			minimum_academic_qualification, status, created_at
		FROM job_postings WHERE external_url = $1
	`, externalURL).Scan(&p.ID, &p.ExternalURL, &p.SiteID, &p.Title, &p.ResponsibilitiesHTML, &p.Benefits, &p.Details,
		&p.CompanyName, &p.CompanyLogoURL, &p.DistrictID, &p.CategoryID, &p.CategoryText, &p.EmploymentStatus,
		&p.Workplace, &minSal, &maxSal, &p.ShowSalary, &p.Deadline, &p.VacanciesCount, &minAge, &maxAge,
		&p.RequiredVideoCV, &p.Gender, &p.MinimumAcademicQualification, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.JobPosting{}, fmt.Errorf("posting %s: %w", externalURL, ErrNotFound)
	}
	if err != nil {
		return models.JobPosting{}, fmt.Errorf("get posting: %w", err)
	}
	p.MinimumSalary = floatPtr(minSal)
	p.MaximumSalary = floatPtr(maxSal)
	p.MinAge = intPtr(minAge)
	p.MaxAge = intPtr(maxAge)
	return p, nil
}

func (s *Postgres) Districts(ctx context.Context) ([]models.District, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM districts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()
	var out []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) SeedReference(ctx context.Context, districts []models.District, categories []models.Category) error {
	batch := &pgx.Batch{}
	for _, d := range districts {
		batch.Queue(`INSERT INTO districts (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, d.Name)
	}
	for _, c := range categories {
		batch.Queue(`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, c.Name)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed reference: %w", err)
	}
	return nil
}

// orNewID returns id, or a fresh uuid when the caller left it empty.
func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// timestampOrNull maps the zero time to NULL so the column default applies.
func timestampOrNull(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func textPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}

func floatPtr(f pgtype.Float8) *float64 {
	if f.Valid {
		return &f.Float64
	}
	return nil
}

func intPtr(i pgtype.Int4) *int {
	if i.Valid {
		v := int(i.Int32)
		return &v
	}
	return nil
}
