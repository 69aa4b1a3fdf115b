package repositories

import (
	"context"
	"fmt"
	"time"

	"pianosheets/internal/catalog"
	"pianosheets/internal/models"
	"pianosheets/internal/services"
	"pianosheets/internal/templates"
)

// ReadmeRepository regenerates the repository README summary
type ReadmeRepository interface {
	Regenerate(ctx context.Context, songs models.Catalog) error
}

type storeReadmeRepository struct {
	store       services.FileStore
	path        string
	catalogPath string
	now         func() time.Time
}

// NewReadmeRepository creates a README writer. catalogPath is mentioned in the
// generated text so readers can find the data.
func NewReadmeRepository(store services.FileStore, path, catalogPath string) ReadmeRepository {
	return &storeReadmeRepository{
		store:       store,
		path:        path,
		catalogPath: catalogPath,
		now:         time.Now,
	}
}

// Regenerate renders the summary for songs and upserts it
func (r *storeReadmeRepository) Regenerate(ctx context.Context, songs models.Catalog) error {
	content, err := RenderReadme(songs, r.catalogPath, r.store.Repository(), r.now())
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Update README (%d songs)", len(songs))
	if _, err := services.UpsertFile(ctx, r.store, r.path, content, message); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}
	return nil
}

// RenderReadme builds the README text for a catalog
func RenderReadme(songs models.Catalog, catalogPath, repository string, now time.Time) ([]byte, error) {
	stats := catalog.ComputeStats(songs)
	content, err := templates.Render(templates.Readme, templates.ReadmeData{
		TotalSongs:      stats.TotalSongs,
		TotalArtists:    stats.TotalArtists,
		TotalCategories: stats.TotalCategories,
		Difficulties:    catalog.DifficultyCounts(stats),
		Artists:         catalog.ArtistCounts(songs),
		CatalogPath:     catalogPath,
		Repository:      repository,
		GeneratedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render README: %w", err)
	}
	return content, nil
}
