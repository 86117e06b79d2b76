// Package scheduler periodically enqueues one crawl cycle per configured site.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"jobcrawler/internal/logger"
	"jobcrawler/internal/store"
)

// Enqueuer queues a cycle for a site slug and returns its run id.
type Enqueuer interface {
	Enqueue(ctx context.Context, slug string) (string, error)
}

// Scheduler wraps robfig/cron.
type Scheduler struct {
	cron  *cron.Cron
	sites store.SiteStore
	queue Enqueuer
	spec  string // cron spec, e.g. "@every 1h"
	log   *logger.Logger
}

func New(sites store.SiteStore, queue Enqueuer, spec string) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		sites: sites,
		queue: queue,
		spec:  spec,
		log:   logger.New("Scheduler"),
	}
}

// Start registers the tick and starts the scheduler. One round is enqueued
// immediately so a fresh deployment does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.enqueueAll(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.LogInfof("cron started, spec: %s", s.spec)

	go s.enqueueAll(ctx)
	return nil
}

// Stop waits for a running tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.LogInfo("cron stopped")
}

// enqueueAll returns how many cycles were queued.
func (s *Scheduler) enqueueAll(ctx context.Context) int {
	sites, err := s.sites.ListSites(ctx)
	if err != nil {
		s.log.LogErrorf("list sites: %v", err)
		return 0
	}
	if len(sites) == 0 {
		s.log.LogWarn("no sites configured, nothing to crawl")
		return 0
	}
	queued := 0
	for _, site := range sites {
		id, err := s.queue.Enqueue(ctx, site.Slug)
		if err != nil {
			s.log.LogErrorf("enqueue cycle for %s: %v", site.Slug, err)
			continue
		}
		queued++
		s.log.LogDebugf("queued cycle %s for %s", id, site.Slug)
	}
	return queued
}
