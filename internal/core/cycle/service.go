package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobcrawler/internal/logger"
	rds "jobcrawler/internal/platform/redis"
)

// ErrNotFound is returned for unknown or expired run ids.
var ErrNotFound = errors.New("cycle run not found")

type Service struct {
	redis *rds.Service
	log   *logger.Logger
	now   func() time.Time
}

func NewService(redis *rds.Service) *Service {
	return &Service{
		redis: redis,
		log:   logger.New("CycleService"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := s.redis.CacheGet(ctx, key(id), &run); err != nil {
		if errors.Is(err, rds.ErrCacheMiss) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

// InitPending records a queued run for site.
func (s *Service) InitPending(ctx context.Context, id, site string) error {
	return s.store(ctx, &Run{ID: id, Site: site, Status: StatusPending, StartedAt: s.now()})
}

// Start moves the run to processing, creating it if nothing was queued.
func (s *Service) Start(ctx context.Context, id, site string) (*Run, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		run = &Run{ID: id, Site: site}
	}
	run.Status = StatusProcessing
	run.StartedAt = s.now()
	return run, s.store(ctx, run)
}

// Update persists intermediate progress.
func (s *Service) Update(ctx context.Context, run *Run) error { return s.store(ctx, run) }

// Finish stamps the terminal status. A non-nil cause marks the run failed.
func (s *Service) Finish(ctx context.Context, run *Run, cause error) error {
	run.Status = StatusCompleted
	if cause != nil {
		run.Status = StatusFailed
		run.Error = cause.Error()
	}
	t := s.now()
	run.FinishedAt = &t
	return s.store(ctx, run)
}

// Skip fails a queued run that never started, so it does not sit in pending
// until its ttl runs out. Runs already picked up are left alone.
func (s *Service) Skip(ctx context.Context, id, site string, reason error) error {
	run, err := s.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		run = &Run{ID: id, Site: site, StartedAt: s.now()}
	} else if run.Status != StatusPending {
		return nil
	}
	return s.Finish(ctx, run, reason)
}

func (s *Service) store(ctx context.Context, run *Run) error {
	if err := s.redis.CacheSet(ctx, key(run.ID), run, ttl(run.Status)); err != nil {
		return err
	}
	if err := s.redis.Publish(ctx, key(run.ID), "updated"); err != nil {
		s.log.LogWarnf("publish update for run %s: %v", run.ID, err)
	}
	return nil
}

func key(id string) string { return "cycle:" + id }

func ttl(s Status) time.Duration {
	if s == StatusCompleted || s == StatusFailed {
		return time.Hour
	}
	return 10 * time.Minute
}
