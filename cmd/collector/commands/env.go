package commands

import (
	"context"
	"fmt"
	"log/slog"

	"pianosheets/internal/cache"
	"pianosheets/internal/config"
	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
	"pianosheets/internal/services"
)

// environment holds the service-level dependencies shared by subcommands
type environment struct {
	cfg   *config.Config
	store services.FileStore
	cache cache.Cache
	db    *models.Database
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	docCache, err := cache.New(cfg.ValkeyURL, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	env := &environment{
		cfg:   cfg,
		cache: docCache,
		store: services.NewGitHubStore(ctx, services.GitHubStoreOptions{
			Token:   cfg.GitHubToken,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			BaseURL: cfg.GitHubAPIURL,
			Timeout: cfg.HTTPTimeout,
			Cache:   docCache,
		}),
	}

	if cfg.RunHistoryEnabled() {
		db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
		if err != nil {
			// Run history is best-effort; the collection itself can proceed
			slog.Warn("Run history disabled, database unreachable", "error", err)
		} else {
			env.db = db
		}
	}

	return env, nil
}

// runs returns the run history repository, or nil when MongoDB is not configured
func (e *environment) runs() repositories.RunRepository {
	if e.db == nil {
		return nil
	}
	return repositories.NewMongoRunRepository(e.db)
}

func (e *environment) catalog() repositories.CatalogRepository {
	return repositories.NewCatalogRepository(e.store, e.cfg.SheetsFilePath)
}

func (e *environment) readme() repositories.ReadmeRepository {
	return repositories.NewReadmeRepository(e.store, e.cfg.ReadmePath, e.cfg.SheetsFilePath)
}

func (e *environment) Close() {
	if e.db != nil {
		if err := e.db.Close(context.Background()); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
	if err := e.cache.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
}
