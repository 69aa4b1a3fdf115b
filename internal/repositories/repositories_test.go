package repositories_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
	"pianosheets/internal/services"
	"pianosheets/internal/testutil"
)

const (
	catalogPath   = "sheets/piano_sheets.json"
	favoritesPath = "sheets/favorites.json"
)

func TestCatalogRepository_RoundTrip(t *testing.T) {
	store := testutil.NewMemoryStore()
	repo := repositories.NewCatalogRepository(store, catalogPath)
	ctx := context.Background()

	songs := testutil.CreateTestCatalog()
	added, err := repo.Append(ctx, songs...)
	require.NoError(t, err)
	assert.Equal(t, len(songs), added)

	loaded, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(songs))
	for i := range songs {
		assert.Equal(t, *songs[i], *loaded[i])
	}
}

func TestCatalogRepository_AppendKeepsExistingRecords(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.Seed(catalogPath, []byte(`[
  null,
  {"title": "Rondo", "url": "https://playpianosheets.com/sheets/rondo", "bpm": 120, "composer_note": "op. 59"}
]`))
	repo := repositories.NewCatalogRepository(store, catalogPath)
	ctx := context.Background()

	added, err := repo.Append(ctx, testutil.FurElise())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	stored := string(store.Content(catalogPath))
	assert.Contains(t, stored, `"bpm": 120`)
	assert.Contains(t, stored, `"composer_note": "op. 59"`)
	assert.NotContains(t, stored, "null")

	loaded, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Rondo", loaded[0].Title)
	assert.Len(t, loaded[0].Extra, 2)
}

func TestCatalogRepository_AppendSkipsKnownURLs(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.SeedCatalog(catalogPath, models.Catalog{testutil.FurElise()})
	repo := repositories.NewCatalogRepository(store, catalogPath)
	ctx := context.Background()

	added, err := repo.Append(ctx, testutil.FurElise())
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Empty(t, store.Commits, "nothing to write")

	newSong := testutil.NewSongBuilder().WithTitle("Clair de Lune").WithSlug("clair-de-lune").Build()
	added, err = repo.Append(ctx, testutil.FurElise(), newSong)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"Add Clair de Lune"}, store.Commits)

	loaded, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestCatalogRepository_Errors(t *testing.T) {
	store := testutil.NewMemoryStore()
	repo := repositories.NewCatalogRepository(store, catalogPath)
	ctx := context.Background()

	_, err := repo.All(ctx)
	assert.ErrorIs(t, err, services.ErrFileNotFound)

	store.Seed(catalogPath, []byte("{not json"))
	_, err = repo.All(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog")

	store.Err = services.ErrNotConfigured
	_, err = repo.All(ctx)
	assert.Equal(t, services.ErrNotConfigured, err)

	assert.Equal(t, catalogPath, repo.Path())
	assert.Equal(t, store.Repository(), repo.Repository())
}

func TestFavoritesRepository_AddIsIdempotent(t *testing.T) {
	store := testutil.NewMemoryStore()
	repo := repositories.NewFavoritesRepository(store, favoritesPath)
	ctx := context.Background()

	fav, changed, err := repo.Add(ctx, "fur-elise")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"fur-elise"}, fav.IDs)

	fav, changed, err = repo.Add(ctx, "fur-elise")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"fur-elise"}, fav.IDs)

	assert.Len(t, store.Commits, 1, "second add must not write")
}

func TestFavoritesRepository_Remove(t *testing.T) {
	store := testutil.NewMemoryStore()
	repo := repositories.NewFavoritesRepository(store, favoritesPath)
	ctx := context.Background()

	_, changed, err := repo.Remove(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = repo.Add(ctx, "a")
	require.NoError(t, err)
	_, _, err = repo.Add(ctx, "b")
	require.NoError(t, err)

	fav, changed, err := repo.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"b"}, fav.IDs)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, stored.IDs)
}

func TestFavoritesRepository_MissingDocumentIsEmpty(t *testing.T) {
	repo := repositories.NewFavoritesRepository(testutil.NewMemoryStore(), favoritesPath)

	fav, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fav.IDs)
	assert.NotNil(t, fav.IDs)
}

// conflictStore changes the file version between read and write
type conflictStore struct {
	*testutil.MemoryStore
	path string
}

func (s *conflictStore) PutFile(ctx context.Context, path string, content []byte, sha, message string) (string, error) {
	s.Touch(s.path)
	return s.MemoryStore.PutFile(ctx, path, content, sha, message)
}

func TestFavoritesRepository_StaleVersionIsSurfaced(t *testing.T) {
	mem := testutil.NewMemoryStore()
	mem.Seed(favoritesPath, []byte(`{"favorites":["x"]}`))
	repo := repositories.NewFavoritesRepository(&conflictStore{MemoryStore: mem, path: favoritesPath}, favoritesPath)

	_, _, err := repo.Add(context.Background(), "y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConflict))

	assert.JSONEq(t, `{"favorites":["x"]}`, string(mem.Content(favoritesPath)), "no blind overwrite")
}

func TestReadmeRepository_Regenerate(t *testing.T) {
	store := testutil.NewMemoryStore()
	repo := repositories.NewReadmeRepository(store, "README.md", catalogPath)
	ctx := context.Background()

	require.NoError(t, repo.Regenerate(ctx, testutil.CreateTestCatalog()))
	first := string(store.Content("README.md"))
	assert.Contains(t, first, "| Total songs | 3 |")
	assert.Contains(t, first, "| Beethoven | 2 |")
	assert.NotContains(t, first, "| Unknown |")

	// Second regeneration updates in place
	require.NoError(t, repo.Regenerate(ctx, models.Catalog{testutil.FurElise()}))
	assert.Contains(t, string(store.Content("README.md")), "| Total songs | 1 |")
	assert.Len(t, store.Commits, 2)
}

func TestRenderReadme(t *testing.T) {
	out, err := repositories.RenderReadme(models.Catalog{}, catalogPath, "owner/repo", time.Now())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Piano Sheets Database"))
	assert.Contains(t, string(out), "`"+catalogPath+"`")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, repositories.ClampLimit(0))
	assert.Equal(t, 5, repositories.ClampLimit(5))
	assert.Equal(t, 100, repositories.ClampLimit(1000))
}
