package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pianosheets/internal/models"
	"pianosheets/internal/services"
)

// CatalogRepository defines the operations on the single catalog document
type CatalogRepository interface {
	// All fetches and parses the full catalog. Every call goes to the store.
	All(ctx context.Context) (models.Catalog, error)

	// Append adds songs whose URL is not yet in the catalog and writes the
	// document back with the version token from the read. Returns how many
	// songs were added.
	Append(ctx context.Context, songs ...*models.Song) (int, error)

	// Path returns the document path inside the repository
	Path() string

	// Repository returns the store repository identifier
	Repository() string
}

// storeCatalogRepository implements CatalogRepository over a FileStore
type storeCatalogRepository struct {
	store services.FileStore
	path  string
}

// NewCatalogRepository creates a catalog repository for the document at path
func NewCatalogRepository(store services.FileStore, path string) CatalogRepository {
	return &storeCatalogRepository{
		store: store,
		path:  path,
	}
}

func (r *storeCatalogRepository) Path() string {
	return r.path
}

func (r *storeCatalogRepository) Repository() string {
	return r.store.Repository()
}

// All reads the catalog document
func (r *storeCatalogRepository) All(ctx context.Context) (models.Catalog, error) {
	songs, _, err := r.load(ctx)
	return songs, err
}

// Append performs a read-modify-write of the catalog document
func (r *storeCatalogRepository) Append(ctx context.Context, songs ...*models.Song) (int, error) {
	existing, sha, err := r.load(ctx)
	if err != nil && !errors.Is(err, services.ErrFileNotFound) {
		return 0, err
	}

	added := 0
	var last *models.Song
	for _, song := range songs {
		if song == nil || existing.ContainsURL(song.URL) {
			continue
		}
		existing = append(existing, song)
		last = song
		added++
	}
	if added == 0 {
		slog.Debug("Catalog append skipped, all songs already present", "path", r.path)
		return 0, nil
	}

	data, err := existing.Encode()
	if err != nil {
		return 0, fmt.Errorf("failed to encode catalog: %w", err)
	}

	message := fmt.Sprintf("Add %d song(s) to catalog", added)
	if added == 1 {
		message = fmt.Sprintf("Add %s", last.Title)
	}
	if _, err := r.store.PutFile(ctx, r.path, data, sha, message); err != nil {
		return 0, err
	}

	slog.Info("Catalog updated", "path", r.path, "added", added, "total", len(existing))
	return added, nil
}

// load returns the catalog and its version token. A missing document is
// reported as ErrFileNotFound together with an empty catalog.
func (r *storeCatalogRepository) load(ctx context.Context) (models.Catalog, string, error) {
	file, err := r.store.GetFile(ctx, r.path)
	if err != nil {
		return models.Catalog{}, "", err
	}

	songs, err := models.ParseCatalog(file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse catalog %s: %w", r.path, err)
	}
	return songs, file.SHA, nil
}
