package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"jobcrawler/internal/config"
	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/core/cursor"
	"jobcrawler/internal/core/cycle"
	"jobcrawler/internal/core/document"
	"jobcrawler/internal/core/fetch"
	"jobcrawler/internal/core/pages"
	"jobcrawler/internal/logger"
	"jobcrawler/internal/models"
	rds "jobcrawler/internal/platform/redis"
	tasks "jobcrawler/internal/platform/tasks"
	"jobcrawler/internal/store"
	"jobcrawler/internal/telemetry"
)

// ErrCycleInProgress is returned when another cycle holds the site.
var ErrCycleInProgress = errors.New("cycle already in progress")

type Dependencies struct {
	Sites    store.SiteStore
	Cursor   *cursor.Driver
	Pages    *pages.Manager
	Fetcher  fetch.Getter
	Registry *adapter.Registry
	Runs     *cycle.Service
	Redis    *rds.Service
	// Tasks may be nil when cycles are only run in-process.
	Tasks *tasks.Client
}

type CrawlService struct {
	d      Dependencies
	config config.Config
	log    *logger.Logger

	mu    sync.Mutex
	sites map[string]*sync.Mutex
	now   func() time.Time
}

func NewCrawlService(d Dependencies, cfg config.Config) *CrawlService {
	return &CrawlService{
		d:      d,
		config: cfg,
		log:    logger.New("CrawlService"),
		sites:  make(map[string]*sync.Mutex),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CrawlService) siteMutex(slug string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sites[slug]
	if !ok {
		m = &sync.Mutex{}
		s.sites[slug] = m
	}
	return m
}

// Enqueue schedules a cycle for slug on the task queue and returns the run id.
func (s *CrawlService) Enqueue(ctx context.Context, slug string) (string, error) {
	if s.d.Tasks == nil {
		return "", errors.New("task client not configured")
	}
	if _, err := s.d.Sites.GetSite(ctx, slug); err != nil {
		return "", err
	}
	id := uuid.New().String()
	if err := s.d.Runs.InitPending(ctx, id, slug); err != nil {
		return "", err
	}
	task, err := tasks.NewCycleTask(tasks.CyclePayload{RunID: id, Site: slug})
	if err != nil {
		return "", err
	}
	if err := s.d.Tasks.Enqueue(task, tasks.QueueDefault, s.config.TaskMaxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("enqueued cycle %s for %s", id, slug)
	return id, nil
}

func (s *CrawlService) HandleCycleTask(ctx context.Context, task *asynq.Task) error {
	var p tasks.CyclePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode cycle payload: %w", err)
	}
	if p.RunID == "" {
		p.RunID = uuid.New().String()
	}
	_, err := s.RunCycle(ctx, p.Site, p.RunID)
	if errors.Is(err, ErrCycleInProgress) {
		s.log.LogWarnf("skipping cycle %s for %s: %v", p.RunID, p.Site, err)
		if serr := s.d.Runs.Skip(ctx, p.RunID, p.Site, err); serr != nil {
			s.log.LogWarnf("mark run %s skipped: %v", p.RunID, serr)
		}
		return nil
	}
	return err
}

// RunCycle advances the site cursor, fetches the listing page, records new
// detail pages and processes every pending page. Listing failures end the
// run as failed with a nil error; a non-nil error means the cycle could not
// run or was interrupted.
func (s *CrawlService) RunCycle(ctx context.Context, slug, runID string) (*cycle.Run, error) {
	local := s.siteMutex(slug)
	if !local.TryLock() {
		return nil, fmt.Errorf("%s: %w", slug, ErrCycleInProgress)
	}
	defer local.Unlock()

	lock, err := s.d.Redis.TryLock(ctx, "lock:cycle:"+slug, s.config.CycleLockTTL)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, fmt.Errorf("%s: %w", slug, ErrCycleInProgress)
	}
	defer func() {
		if err := s.d.Redis.Unlock(context.Background(), lock); err != nil {
			s.log.LogWarnf("release lock for %s: %v", slug, err)
		}
	}()

	site, err := s.d.Sites.GetSite(ctx, slug)
	if err != nil {
		return nil, err
	}
	a, err := s.d.Registry.Get(site.Adapter)
	if err != nil {
		return nil, err
	}

	run, err := s.d.Runs.Start(ctx, runID, slug)
	if err != nil {
		return nil, err
	}

	err = s.runCycle(ctx, site, a, run)
	if ferr := s.d.Runs.Finish(context.Background(), run, err); ferr != nil {
		s.log.LogWarnf("store run %s: %v", run.ID, ferr)
	}
	s.log.Info().
		Str("site", slug).
		Str("run", run.ID).
		Str("status", string(run.Status)).
		Int("found", run.Counts.Found).
		Int("new", run.Counts.New).
		Int("completed", run.Counts.Completed).
		Int("already_imported", run.Counts.AlreadyImported).
		Int("errored", run.Counts.Errored).
		Msg("cycle finished")

	var lerr *listingError
	if errors.As(err, &lerr) {
		return run, nil
	}
	return run, err
}

// listingError ends a cycle before discovery.
type listingError struct{ err error }

func (e *listingError) Error() string { return e.err.Error() }
func (e *listingError) Unwrap() error { return e.err }

func (s *CrawlService) runCycle(ctx context.Context, site models.Site, a adapter.Adapter, run *cycle.Run) error {
	if err := s.d.Sites.RecordListing(ctx, site.ID, store.ListingResult{Status: models.FetchInProgress, At: s.now()}); err != nil {
		return err
	}

	listingURL, site, err := s.d.Cursor.Advance(ctx, site, a)
	if err != nil {
		return err
	}
	run.Page, run.ListingURL = site.CursorPage, listingURL
	s.updateRun(ctx, run)
	s.log.Info().Str("site", site.Slug).Int("page", site.CursorPage).Str("url", listingURL).Msg("cursor advanced")

	resp, err := s.d.Fetcher.Get(ctx, "listing", listingURL)
	if err != nil {
		return s.listingFailed(ctx, site, err)
	}
	doc, err := document.Parse(resp.Body, resp.URL)
	if err != nil {
		return s.listingFailed(ctx, site, err)
	}

	candidates := a.Discover(site, doc)
	created, err := s.d.Pages.EnqueueAll(ctx, site, candidates)
	if err != nil {
		return err
	}
	run.Counts.Found, run.Counts.New = len(candidates), created
	s.log.LogInfof("%s page %d: %d links found, %d new", site.Slug, site.CursorPage, len(candidates), created)

	if err := s.d.Sites.RecordListing(ctx, site.ID, store.ListingResult{Status: models.FetchSuccess, HTML: resp.Body, At: s.now()}); err != nil {
		return err
	}
	telemetry.CyclesTotal.WithLabelValues(site.Slug, string(models.FetchSuccess)).Inc()
	s.updateRun(ctx, run)

	return s.processPending(ctx, site, a, run)
}

// updateRun stores progress. A failed write only costs the live view of the
// run, so the cycle carries on.
func (s *CrawlService) updateRun(ctx context.Context, run *cycle.Run) {
	if err := s.d.Runs.Update(ctx, run); err != nil {
		s.log.LogWarnf("update run %s: %v", run.ID, err)
	}
}

func (s *CrawlService) listingFailed(ctx context.Context, site models.Site, cause error) error {
	s.log.LogErrorf("listing fetch for %s failed: %v", site.Slug, cause)
	msg := cause.Error()
	if err := s.d.Sites.RecordListing(ctx, site.ID, store.ListingResult{Status: models.FetchFailed, Error: &msg, At: s.now()}); err != nil {
		return err
	}
	telemetry.CyclesTotal.WithLabelValues(site.Slug, string(models.FetchFailed)).Inc()
	return &listingError{err: cause}
}

// processPending runs detail pages through the page manager with bounded
// concurrency. Each page failure is recorded on its row; only store errors
// and cancellation stop the loop, leaving unprocessed pages pending.
func (s *CrawlService) processPending(ctx context.Context, site models.Site, a adapter.Adapter, run *cycle.Run) error {
	pending, err := s.d.Pages.Pending(ctx, site, s.config.MaxPagesPerCycle)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	limit := s.config.DetailConcurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for _, page := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := s.d.Pages.FetchAndProcess(gctx, page, site, a)
			if err != nil {
				return err
			}
			mu.Lock()
			switch outcome {
			case pages.OutcomeCompleted:
				run.Counts.Completed++
			case pages.OutcomeAlreadyImported:
				run.Counts.AlreadyImported++
			case pages.OutcomeError:
				run.Counts.Errored++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Parent cancellation between pages is still an interruption.
	return ctx.Err()
}

// RunAll runs one cycle per configured site, sequentially.
func (s *CrawlService) RunAll(ctx context.Context) error {
	sites, err := s.d.Sites.ListSites(ctx)
	if err != nil {
		return err
	}
	for _, site := range sites {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.RunCycle(ctx, site.Slug, uuid.New().String()); err != nil {
			s.log.LogErrorf("cycle for %s: %v", site.Slug, err)
		}
	}
	return nil
}
