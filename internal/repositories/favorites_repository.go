package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pianosheets/internal/models"
	"pianosheets/internal/services"
)

// FavoritesRepository defines the operations on the favorites document.
// Mutations report whether the list changed; an unchanged list is not an error.
type FavoritesRepository interface {
	Get(ctx context.Context) (*models.Favorites, error)
	Add(ctx context.Context, id string) (*models.Favorites, bool, error)
	Remove(ctx context.Context, id string) (*models.Favorites, bool, error)
}

// storeFavoritesRepository implements FavoritesRepository over a FileStore
type storeFavoritesRepository struct {
	store services.FileStore
	path  string
	now   func() time.Time
}

// NewFavoritesRepository creates a favorites repository for the document at path
func NewFavoritesRepository(store services.FileStore, path string) FavoritesRepository {
	return &storeFavoritesRepository{
		store: store,
		path:  path,
		now:   time.Now,
	}
}

// Get reads the favorites list. A missing document is an empty list.
func (r *storeFavoritesRepository) Get(ctx context.Context) (*models.Favorites, error) {
	fav, _, err := r.load(ctx)
	return fav, err
}

// Add appends id and rewrites the document unless id is already present
func (r *storeFavoritesRepository) Add(ctx context.Context, id string) (*models.Favorites, bool, error) {
	return r.mutate(ctx, id, "Add "+id+" to favorites", func(fav *models.Favorites, now time.Time) bool {
		return fav.Add(id, now)
	})
}

// Remove deletes id and rewrites the document unless id is absent
func (r *storeFavoritesRepository) Remove(ctx context.Context, id string) (*models.Favorites, bool, error) {
	return r.mutate(ctx, id, "Remove "+id+" from favorites", func(fav *models.Favorites, now time.Time) bool {
		return fav.Remove(id, now)
	})
}

// mutate runs a read-modify-write guarded by the version token of the read.
// A stale token surfaces as services.ErrConflict without retry.
func (r *storeFavoritesRepository) mutate(ctx context.Context, id, message string, apply func(*models.Favorites, time.Time) bool) (*models.Favorites, bool, error) {
	fav, sha, err := r.load(ctx)
	if err != nil {
		return nil, false, err
	}

	if !apply(fav, r.now()) {
		return fav, false, nil
	}

	data, err := fav.Encode()
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode favorites: %w", err)
	}

	if _, err := r.store.PutFile(ctx, r.path, data, sha, message); err != nil {
		return nil, false, err
	}

	slog.Info("Favorites updated", "message", message, "song_id", id, "count", len(fav.IDs))
	return fav, true, nil
}

func (r *storeFavoritesRepository) load(ctx context.Context) (*models.Favorites, string, error) {
	file, err := r.store.GetFile(ctx, r.path)
	if errors.Is(err, services.ErrFileNotFound) {
		return models.NewFavorites(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	fav, err := models.ParseFavorites(file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse favorites %s: %w", r.path, err)
	}
	return fav, file.SHA, nil
}
