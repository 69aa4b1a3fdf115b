package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pianosheets/internal/cache"
	"pianosheets/internal/config"
	"pianosheets/internal/handlers"
	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
	"pianosheets/internal/services"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize cache
	docCache, err := cache.New(cfg.ValkeyURL, 256)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer docCache.Close()

	// Initialize remote store
	store := services.NewGitHubStore(ctx, services.GitHubStoreOptions{
		Token:   cfg.GitHubToken,
		Repo:    cfg.GitHubRepo,
		Branch:  cfg.GitHubBranch,
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.HTTPTimeout,
		Cache:   docCache,
	})
	if !cfg.GitHubConfigured() {
		slog.Warn("GITHUB_TOKEN not set, data endpoints will report an error")
	}

	opts := handlers.RouterOptions{
		Catalog:    repositories.NewCatalogRepository(store, cfg.SheetsFilePath),
		Favorites:  repositories.NewFavoritesRepository(store, cfg.FavoritesFilePath),
		Readme:     repositories.NewReadmeRepository(store, cfg.ReadmePath, cfg.SheetsFilePath),
		ScraperKey: cfg.ScraperKey,
		Debug:      cfg.Debug,
	}

	// Run history is optional
	if cfg.RunHistoryEnabled() {
		db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close(context.Background())

		if err := db.CreateIndexes(ctx); err != nil {
			slog.Warn("Failed to create indexes", "error", err)
		}
		opts.Runs = repositories.NewMongoRunRepository(db)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.SetupRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server",
			"port", cfg.Port,
			"repository", store.Repository(),
			"catalog", cfg.SheetsFilePath,
			"admin", cfg.AdminEnabled(),
			"run_history", cfg.RunHistoryEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
