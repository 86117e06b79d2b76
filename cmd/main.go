package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"jobcrawler/internal/config"
	"jobcrawler/internal/core/adapter"
	"jobcrawler/internal/core/crawl"
	"jobcrawler/internal/core/cursor"
	"jobcrawler/internal/core/cycle"
	"jobcrawler/internal/core/fetch"
	"jobcrawler/internal/core/pages"
	"jobcrawler/internal/logger"
	rds "jobcrawler/internal/platform/redis"
	tasks "jobcrawler/internal/platform/tasks"
	"jobcrawler/internal/reference"
	"jobcrawler/internal/scheduler"
	"jobcrawler/internal/server"
	"jobcrawler/internal/sites"
	"jobcrawler/internal/store"
	"jobcrawler/internal/worker"
)

// workerConcurrency is the number of cycle tasks handled at once. Cycles for
// the same site are still serialized by the site lock.
const workerConcurrency = 2

func main() {
	// Optional .env for local runs
	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("[jobcrawler] starting at %s (env=%s, store=%s)\n", cfg.HTTPAddr, cfg.AppEnv, cfg.StoreDriver)

	logr := logger.New("main")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	db, err := openStore(ctx, cfg)
	if err != nil {
		logr.LogFatalf("open store: %v", err)
	}
	defer db.Close()

	districts, categories, err := reference.Seed()
	if err != nil {
		logr.LogFatalf("reference seed: %v", err)
	}
	if err := db.SeedReference(ctx, districts, categories); err != nil {
		logr.LogFatalf("seed reference tables: %v", err)
	}
	catalog, err := reference.Load(ctx, db)
	if err != nil {
		logr.LogFatalf("load reference catalog: %v", err)
	}

	registry := adapter.DefaultRegistry()
	defs, err := sites.Load(cfg.SitesFile)
	if err != nil {
		logr.LogFatalf("load sites: %v", err)
	}
	if err := sites.Seed(ctx, db, registry, defs); err != nil {
		logr.LogFatalf("seed sites: %v", err)
	}

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	taskClient := tasks.New(redisSvc)
	defer taskClient.Close()

	// Core services
	fetcher := fetch.New(fetch.Options{Timeout: cfg.FetchTimeout, Strategy: fetch.ParseStrategy(cfg.UserAgentStrategy)})
	pipeline := adapter.NewPipeline(catalog, db, cfg.DeadlineDefaultDay)
	pageMgr := pages.NewManager(db, fetcher, pipeline, pages.RetryPolicy{
		RetryErrored: cfg.RetryErroredPages,
		MaxAttempts:  cfg.MaxPageAttempts,
	})
	runs := cycle.NewService(redisSvc)
	crawlSvc := crawl.NewCrawlService(crawl.Dependencies{
		Sites:    db,
		Cursor:   cursor.New(db),
		Pages:    pageMgr,
		Fetcher:  fetcher,
		Registry: registry,
		Runs:     runs,
		Redis:    redisSvc,
		Tasks:    taskClient,
	}, cfg)

	// Worker
	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeCycle, crawlSvc.HandleCycleTask)
	workerSrv := worker.NewServer(redisSvc.AsynqRedisOpt(), workerConcurrency, mux)
	go func() {
		if err := workerSrv.Start(); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	sched := scheduler.New(db, crawlSvc, cfg.CrawlSchedule)
	if err := sched.Start(ctx); err != nil {
		logr.LogFatalf("scheduler: %v", err)
	}

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Jobcrawler",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	healthHandler := server.RegisterRoutes(app, server.Dependencies{
		Crawl: crawlSvc,
		Runs:  runs,
		Store: db,
		Redis: redisSvc,
	})
	healthHandler.SetReady()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		sched.Stop()
		cancel()
		workerSrv.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.RunMigrations(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
