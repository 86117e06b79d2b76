package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	CyclesTotal     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "crawl_cycles_total", Help: "Crawl cycles by site and terminal status"}, []string{"site", "status"})
	PagesDiscovered = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "crawl_pages_discovered_total", Help: "New detail pages recorded by discovery"}, []string{"site"})
	PagesProcessed  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "crawl_pages_processed_total", Help: "Detail pages processed by outcome"}, []string{"site", "outcome"})
	PostingsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "crawl_job_postings_created_total", Help: "Job postings persisted"}, []string{"site"})
	FetchDuration   = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawl_fetch_duration_seconds",
		Help:    "HTTP fetch latency by kind and result",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"kind", "result"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			CyclesTotal,
			PagesDiscovered,
			PagesProcessed,
			PostingsCreated,
			FetchDuration,
		)
	})
	return promhttp.Handler()
}
