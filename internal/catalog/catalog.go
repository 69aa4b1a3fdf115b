// Package catalog answers read queries over a fully loaded catalog.
// Every function is pure; loading the catalog is the caller's job.
package catalog

import (
	"errors"
	"math/rand"
	"sort"
	"strings"

	"pianosheets/internal/models"
)

var (
	// ErrEmptyCatalog is returned by Random when there is nothing to pick
	ErrEmptyCatalog = errors.New("no songs available")

	// ErrSongNotFound is returned by FindByID when no record matches
	ErrSongNotFound = errors.New("song not found")
)

// LiteSong is the lightweight projection returned by the list endpoint
type LiteSong struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	URL        string   `json:"url"`
	Difficulty string   `json:"difficulty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Categories []string `json:"categories"`
}

// Stats aggregates the catalog
type Stats struct {
	TotalSongs      int            `json:"total_songs"`
	TotalArtists    int            `json:"total_artists"`
	TotalCategories int            `json:"total_categories"`
	TotalSheets     int            `json:"total_sheets"`
	Difficulties    map[string]int `json:"difficulties"`
	LastUpdated     *string        `json:"last_updated"`
	DatabaseFile    string         `json:"database_file,omitempty"`
	Repository      string         `json:"repository,omitempty"`
}

// Lite projects every song; the id is always the final path segment of the URL
func Lite(songs models.Catalog) []LiteSong {
	out := make([]LiteSong, 0, len(songs))
	for _, s := range songs {
		categories := s.Categories
		if categories == nil {
			categories = []string{}
		}
		out = append(out, LiteSong{
			ID:         models.DeriveID(s.URL),
			Title:      s.Title,
			Artist:     s.ArtistOrDefault(),
			URL:        s.URL,
			Difficulty: s.DifficultyOrDefault(),
			Thumbnail:  s.Thumbnail,
			Categories: categories,
		})
	}
	return out
}

// FindByID returns the first song, in catalog order, whose URL contains id or
// whose final path segment equals id
func FindByID(songs models.Catalog, id string) (*models.Song, error) {
	if id == "" {
		return nil, ErrSongNotFound
	}
	for _, s := range songs {
		if strings.Contains(s.URL, id) || models.DeriveID(s.URL) == id {
			return s, nil
		}
	}
	return nil, ErrSongNotFound
}

// NormalizeQuery lowercases and trims a search query
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Search returns songs whose title or artist contains the query, case-insensitively.
// The query must already be normalized and non-empty.
func Search(songs models.Catalog, query string) models.Catalog {
	results := make(models.Catalog, 0)
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), query) ||
			strings.Contains(strings.ToLower(s.Artist), query) {
			results = append(results, s)
		}
	}
	return results
}

// Categories returns the distinct tags, case preserved, sorted lexicographically
func Categories(songs models.Catalog) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range songs {
		for _, c := range s.Categories {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// FilterByCategory returns songs carrying the tag, compared case-insensitively.
// No match is an empty result, not an error.
func FilterByCategory(songs models.Catalog, name string) models.Catalog {
	results := make(models.Catalog, 0)
	for _, s := range songs {
		if s.HasCategory(name) {
			results = append(results, s)
		}
	}
	return results
}

// ComputeStats aggregates counts over the catalog. The last record's timestamp
// stands in for the catalog's last update.
func ComputeStats(songs models.Catalog) Stats {
	artists := make(map[string]struct{})
	categories := make(map[string]struct{})
	stats := Stats{
		TotalSongs:   len(songs),
		Difficulties: make(map[string]int),
	}

	for _, s := range songs {
		if isKnownArtist(s.Artist) {
			artists[s.Artist] = struct{}{}
		}
		stats.Difficulties[s.DifficultyOrDefault()]++
		for _, c := range s.Categories {
			categories[c] = struct{}{}
		}
		stats.TotalSheets += len(s.Sheets)
	}

	stats.TotalArtists = len(artists)
	stats.TotalCategories = len(categories)

	if len(songs) > 0 {
		if ts := songs[len(songs)-1].Timestamp(); ts != "" {
			stats.LastUpdated = &ts
		}
	}
	return stats
}

// ArtistCounts returns songs per known artist, most songs first, then by name
func ArtistCounts(songs models.Catalog) []NameCount {
	counts := make(map[string]int)
	for _, s := range songs {
		if isKnownArtist(s.Artist) {
			counts[s.Artist]++
		}
	}
	return sortedCounts(counts)
}

// DifficultyCounts returns the difficulty histogram as sorted rows
func DifficultyCounts(stats Stats) []NameCount {
	return sortedCounts(stats.Difficulties)
}

// NameCount is one row of a histogram
type NameCount struct {
	Name  string
	Count int
}

func sortedCounts(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Random picks a song uniformly using rng
func Random(songs models.Catalog, rng *rand.Rand) (*models.Song, error) {
	if len(songs) == 0 {
		return nil, ErrEmptyCatalog
	}
	return songs[rng.Intn(len(songs))], nil
}

func isKnownArtist(artist string) bool {
	return artist != "" && artist != models.UnknownArtist && artist != "Unknown Artist"
}
