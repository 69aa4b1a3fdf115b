package catalog

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pianosheets/internal/models"
)

func sampleCatalog() models.Catalog {
	return models.Catalog{
		{
			Title:      "Fur Elise",
			Artist:     "Beethoven",
			URL:        "https://playpianosheets.com/sheets/fur-elise",
			Difficulty: "Hard",
			Categories: []string{"Classical"},
			Sheets:     []json.RawMessage{json.RawMessage(`{"notes":"[ab]"}`), json.RawMessage(`{"notes":"[cd]"}`)},
			ScrapedAt:  "2024-01-01T00:00:00.000000Z",
		},
		{
			Title:      "Moonlight Sonata",
			Artist:     "Beethoven",
			URL:        "https://playpianosheets.com/sheets/moonlight-sonata",
			Categories: []string{"classical", "Sad"},
		},
		{
			Title:     "Megalovania",
			Artist:    models.UnknownArtist,
			URL:       "https://playpianosheets.com/sheets/megalovania/",
			UpdatedAt: "2024-02-01T00:00:00.000000Z",
		},
	}
}

func TestLite(t *testing.T) {
	songs := sampleCatalog()
	lite := Lite(songs)

	require.Len(t, lite, len(songs))
	for i, s := range lite {
		assert.Equal(t, models.DeriveID(songs[i].URL), s.ID)
		assert.NotEmpty(t, s.Difficulty)
		assert.NotNil(t, s.Categories)
	}
	assert.Equal(t, "fur-elise", lite[0].ID)
	assert.Equal(t, "Normal", lite[1].Difficulty)
	assert.Equal(t, "megalovania", lite[2].ID)
}

func TestLite_ArtistDefault(t *testing.T) {
	lite := Lite(models.Catalog{{Title: "x", URL: "https://a/sheets/x"}})
	assert.Equal(t, models.UnknownArtist, lite[0].Artist)
}

func TestFindByID(t *testing.T) {
	songs := sampleCatalog()

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "exact slug", id: "fur-elise", want: "Fur Elise"},
		{name: "substring of url", id: "moonlight", want: "Moonlight Sonata"},
		{name: "trailing slash url", id: "megalovania", want: "Megalovania"},
		{name: "first match wins", id: "sheets", want: "Fur Elise"},
		{name: "missing", id: "nope", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, err := FindByID(songs, tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSongNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, song.Title)
		})
	}
}

func TestSearch(t *testing.T) {
	songs := sampleCatalog()

	results := Search(songs, NormalizeQuery("  BEETHOVEN "))
	assert.Len(t, results, 2)

	results = Search(songs, NormalizeQuery("mega"))
	require.Len(t, results, 1)
	assert.Equal(t, "Megalovania", results[0].Title)

	results = Search(songs, "zzz")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_ResultsAreSubset(t *testing.T) {
	songs := sampleCatalog()
	for _, q := range []string{"a", "on", "sonata", "e"} {
		for _, s := range Search(songs, q) {
			matched := strings.Contains(strings.ToLower(s.Title), q) ||
				strings.Contains(strings.ToLower(s.Artist), q)
			assert.True(t, matched, "query %q returned %q", q, s.Title)
		}
	}
}

func TestCategories(t *testing.T) {
	cats := Categories(sampleCatalog())
	assert.Equal(t, []string{"Classical", "Sad", "classical"}, cats)

	assert.Equal(t, []string{}, Categories(models.Catalog{}))
}

func TestFilterByCategory(t *testing.T) {
	songs := sampleCatalog()

	results := FilterByCategory(songs, "CLASSICAL")
	assert.Len(t, results, 2)

	results = FilterByCategory(songs, "Jazz")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleCatalog())

	assert.Equal(t, 3, stats.TotalSongs)
	assert.Equal(t, 1, stats.TotalArtists, "Unknown is not an artist")
	assert.Equal(t, 3, stats.TotalCategories)
	assert.Equal(t, 2, stats.TotalSheets)
	assert.Equal(t, map[string]int{"Hard": 1, "Normal": 2}, stats.Difficulties)
	require.NotNil(t, stats.LastUpdated)
	assert.Equal(t, "2024-02-01T00:00:00.000000Z", *stats.LastUpdated)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(models.Catalog{})

	assert.Equal(t, 0, stats.TotalSongs)
	assert.Nil(t, stats.LastUpdated)
	assert.NotNil(t, stats.Difficulties)
}

func TestArtistAndDifficultyCounts(t *testing.T) {
	songs := sampleCatalog()

	assert.Equal(t, []NameCount{{Name: "Beethoven", Count: 2}}, ArtistCounts(songs))
	assert.Equal(t, []NameCount{{Name: "Normal", Count: 2}, {Name: "Hard", Count: 1}},
		DifficultyCounts(ComputeStats(songs)))
}

func TestRandom(t *testing.T) {
	songs := sampleCatalog()
	rng := rand.New(rand.NewSource(1))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		song, err := Random(songs, rng)
		require.NoError(t, err)
		seen[song.Title] = true
	}
	assert.Len(t, seen, len(songs), "every song should eventually be picked")

	_, err := Random(models.Catalog{}, rng)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func BenchmarkSearch(b *testing.B) {
	songs := make(models.Catalog, 0, 500)
	for i := 0; i < 500; i++ {
		songs = append(songs, sampleCatalog()...)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Search(songs, "sonata")
	}
}
