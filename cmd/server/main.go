package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"pecommunity/internal/cache"
	"pecommunity/internal/catalog"
	"pecommunity/internal/config"
	"pecommunity/internal/db"
	"pecommunity/internal/email"
	"pecommunity/internal/jobs"
	"pecommunity/internal/metrics"
	"pecommunity/internal/models"
	"pecommunity/internal/realtime"
	"pecommunity/internal/server"
	"pecommunity/internal/storage"
	"pecommunity/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run wires the services and serves until a signal arrives or the listener
// fails. Deferred cleanups run before main exits.
func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if err := database.SeedCategories(ctx, catalogCategories(cat)); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	// Redis backs sessions, rate limiting, the listing cache and realtime fan-out.
	var (
		redisClient *redis.Client
		kv          fiber.Storage
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		store := redisstore.New(redisstore.Config{URL: cfg.RedisURL})
		defer store.Close()
		kv = store
		log.Println("Redis enabled for sessions, cache and realtime events")
	} else {
		log.Println("REDIS_URL not set. Using in-memory sessions; listing cache disabled.")
	}

	hub := realtime.NewHub(redisClient, 0)
	hub.OnDrop(func(e realtime.Event) {
		metrics.RecordRealtimeDrop(e.Table)
	})
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Printf("Realtime hub stopped: %v", err)
		}
	}()

	contentCache := cache.New(kv, cfg.ContentCacheTTL)

	notifier := email.NewNotifier(cfg, database)

	opts := []workflow.Option{
		workflow.WithPublisher(hub),
		workflow.WithInvalidator(contentCache),
		workflow.WithNotifier(notifier),
	}
	if cfg.S3Bucket != "" {
		uploads, err := storage.NewClient(cfg)
		if err != nil {
			log.Fatalf("Failed to configure object storage: %v", err)
		}
		if err := uploads.EnsureBucket(ctx); err != nil {
			log.Printf("Warning: could not verify bucket %s: %v", cfg.S3Bucket, err)
		}
		opts = append(opts, workflow.WithUploader(uploads))
	} else {
		log.Println("S3_BUCKET not set. File uploads are disabled.")
	}
	wf := workflow.New(database, cat, opts...)

	metrics.Init(database)
	go jobs.NewStatsRefresher(database, cfg.StatsRefreshInterval).Start(ctx)

	srv := server.New(cfg, kv)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		DB:       database,
		Catalog:  cat,
		Workflow: wf,
		Hub:      hub,
		Cache:    contentCache,
		Notifier: notifier,
		Redis:    redisClient,
	}); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// Graceful shutdown
	startErr := make(chan error, 1)
	go func() {
		startErr <- srv.Start()
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var exitErr error
	select {
	case <-quit:
	case exitErr = <-startErr:
		if exitErr != nil {
			log.Printf("Server error: %v", exitErr)
		}
	}

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil && exitErr == nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
	return exitErr
}

// catalogCategories flattens the catalog into categories table rows.
func catalogCategories(cat *catalog.Catalog) []models.Category {
	var out []models.Category
	for _, stage := range cat.Stages() {
		for _, c := range stage.Categories {
			out = append(out, models.Category{
				ID:          c.ID,
				StageID:     stage.ID,
				Name:        c.Title,
				Description: c.Description,
			})
		}
	}
	return out
}
