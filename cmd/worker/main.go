package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/clients/gemini"
	"github.com/b3radar/b3radar/internal/clients/yahoo"
	"github.com/b3radar/b3radar/internal/config"
	"github.com/b3radar/b3radar/internal/database"
	"github.com/b3radar/b3radar/internal/modules/catalog"
	"github.com/b3radar/b3radar/internal/modules/refresh"
	"github.com/b3radar/b3radar/internal/scheduler"
	"github.com/b3radar/b3radar/internal/server"
	"github.com/b3radar/b3radar/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting B3 Radar worker")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	catalog.EnsureSchema(db.Conn(), log)

	driver := buildDriver(cfg, db, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	job := scheduler.NewRefreshJob(driver, log)

	schedule := fmt.Sprintf("@every %s", cfg.RefreshInterval)
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}

	// First cycle runs immediately; later ones follow the schedule
	go func() {
		if err := sched.RunNow(job); err != nil {
			log.Error().Err(err).Msg("Initial refresh cycle failed")
		}
	}()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:   cfg.Port,
		Log:    log,
		Status: driver,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Worker started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Worker stopped")
}

// buildDriver wires the refresh pipeline. Missing AI or news credentials
// leave the matching client nil; downstream components degrade to
// sentinel outputs instead of failing.
func buildDriver(cfg *config.Config, db *database.DB, log zerolog.Logger) *refresh.Driver {
	ctx := context.Background()

	var analystGen refresh.Generator
	var resolver refresh.ModelResolver

	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, log)
		if err != nil {
			log.Error().Err(err).Msg("Gemini client unavailable, analyses degrade to sentinels")
		} else {
			analystGen = client
			resolver = gemini.NewResolver(client, gemini.NewModelCache(), log)
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, analyses degrade to sentinels")
	}

	if resolver == nil {
		resolver = gemini.NewResolver(nil, gemini.NewModelCache(), log)
	}

	var searcher refresh.Searcher
	if key := cfg.NewsKey(); key != "" {
		client, err := gemini.NewClient(ctx, key, log)
		if err != nil {
			log.Error().Err(err).Msg("News client unavailable, headlines degrade to sentinels")
		} else {
			searcher = client
		}
	} else {
		log.Warn().Msg("No news credential set, headlines degrade to sentinels")
	}

	analyst := refresh.NewAnalyst(refresh.AnalystConfig{
		Generator:    analystGen,
		Resolver:     resolver,
		QuotaRetries: cfg.QuotaRetries,
		Log:          log,
	})

	fetcher := refresh.NewNewsFetcher(searcher, resolver, log)

	return refresh.NewDriver(refresh.DriverConfig{
		Quotes:          yahoo.NewClient(log),
		Assets:          catalog.NewAssetRepository(db.Conn(), log),
		Bars:            catalog.NewQuoteRepository(db.Conn(), log),
		News:            catalog.NewNewsRepository(db.Conn(), log),
		Fetcher:         fetcher,
		Analyst:         analyst,
		SentimentMean:   catalog.MeanSentiment,
		AssetPace:       cfg.AssetPace,
		FreshnessWindow: cfg.FreshnessWindow,
		Log:             log,
	})
}
