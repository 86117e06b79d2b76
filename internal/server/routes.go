package server

import (
	"jobcrawler/internal/core/crawl"
	"jobcrawler/internal/core/cycle"
	"jobcrawler/internal/core/pages"
	"jobcrawler/internal/health"
	"jobcrawler/internal/platform/redis"
	"jobcrawler/internal/store"
	"jobcrawler/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type Dependencies struct {
	Crawl *crawl.CrawlService
	Runs  *cycle.Service
	Store store.Store
	Redis *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis, d.Store)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	api := app.Group("/v1")

	crawlHandler := crawl.NewCrawlHandler(d.Runs, d.Crawl, d.Store)
	api.Get("/sites", crawlHandler.HandleListSites)
	api.Post("/sites/:slug/cycles", crawlHandler.HandleCreateCycle)
	api.Get("/cycles/:id", crawlHandler.HandleGetCycle)

	pagesHandler := pages.NewHandler(d.Store, d.Store)
	api.Get("/pages", pagesHandler.HandleList)
	api.Post("/pages/:id/retry", pagesHandler.HandleRetry)

	return healthHandler
}
