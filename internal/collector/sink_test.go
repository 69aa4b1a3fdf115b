package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pianosheets/internal/repositories"
	"pianosheets/internal/testutil"
)

func TestCatalogSink(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	sink := NewCatalogSink(repositories.NewCatalogRepository(store, catalogPath))

	existing, err := sink.Existing(ctx)
	require.NoError(t, err, "missing catalog is empty")
	assert.Empty(t, existing)

	song := testutil.FurElise()
	song.Notes = testutil.TestCleanNotes
	require.NoError(t, sink.Save(ctx, song))
	require.NoError(t, sink.Save(ctx, song), "duplicate URL is a no-op")

	assert.Equal(t, testutil.TestCleanNotes, song.Notes, "caller's record is not modified")
	assert.Equal(t, []string{"Add Fur Elise"}, store.Commits)

	existing, err = sink.Existing(ctx)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Empty(t, existing[0].Notes)
	require.Len(t, existing[0].Sheets, 1)

	var variant sheetVariant
	require.NoError(t, json.Unmarshal(existing[0].Sheets[0], &variant))
	assert.Equal(t, sheetVariant{Difficulty: "Hard", Notes: testutil.TestCleanNotes}, variant)
}

func TestRemoteFileSink(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.Seed("sheets/notes.txt", []byte("ignored"))
	store.Seed("sheets/Someone/Broken.json", []byte("{not json"))
	sink := NewRemoteFileSink(store, "sheets/")

	song := testutil.FurElise()
	song.Notes = testutil.TestCleanNotes
	require.NoError(t, sink.Save(ctx, song))

	assert.Equal(t, []string{"Add Fur Elise by Beethoven"}, store.Commits)
	assert.Contains(t, string(store.Content("sheets/Beethoven/Fur_Elise.json")), `"notes": "[tu] [ey]`)

	existing, err := sink.Existing(ctx)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, "fur-elise", existing[0].ID)
	assert.Equal(t, testutil.TestCleanNotes, existing[0].Notes)

	// Rewriting the same song updates in place
	require.NoError(t, sink.Save(ctx, song))
	assert.Len(t, store.Commits, 2)
}

func TestLocalFileSink(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewLocalFileSink(dir)

	existing, err := sink.Existing(ctx)
	require.NoError(t, err, "missing directory is empty")
	assert.Empty(t, existing)

	song := testutil.FurElise()
	song.Notes = testutil.TestCleanNotes
	require.NoError(t, sink.Save(ctx, song))

	data, err := os.ReadFile(filepath.Join(dir, "Beethoven", "Fur_Elise.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Fur Elise"`)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte(`[]`), 0o644))

	existing, err = sink.Existing(ctx)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, song.URL, existing[0].URL)
	assert.Equal(t, "local", sink.Name())
}
