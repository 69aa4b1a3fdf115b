package models

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

const (
	// UnknownArtist is stored when a listing card has no artist text
	UnknownArtist = "Unknown"

	// DefaultDifficulty is reported for records without a difficulty label
	DefaultDifficulty = "Normal"
)

// Song represents one catalog entry: song metadata plus its extracted notation
type Song struct {
	ID         string   `json:"id,omitempty"`         // Last path segment of URL
	Title      string   `json:"title"`
	Artist     string   `json:"artist,omitempty"`
	URL        string   `json:"url"`                  // Canonical detail page URL, natural key
	Difficulty string   `json:"difficulty,omitempty"` // Free text, e.g. "Easy", "Hard"
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// Notation payload, opaque to the query layer
	Sheets []json.RawMessage `json:"sheets,omitempty"` // Sheet variants (catalog generation)
	Notes  string            `json:"notes,omitempty"`  // Single cleaned text block (file-per-song generation)

	// Timestamps of the last successful extraction
	ScrapedAt string `json:"scraped_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`

	// Fields written by other tools, carried through unchanged
	Extra map[string]json.RawMessage `json:"-"`
}

// Catalog is the ordered sequence of all songs
type Catalog []*Song

// DeriveID returns the last path segment of a song URL.
// Query strings, fragments and trailing slashes are ignored so the same page
// always maps to the same id.
func DeriveID(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	} else if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// NewSong creates a song for a detail page URL with its id derived from the URL
func NewSong(title, artist, pageURL string) *Song {
	return &Song{
		ID:     DeriveID(pageURL),
		Title:  title,
		Artist: artist,
		URL:    pageURL,
	}
}

// SongID returns the stored id, or the id derived from the URL when none is stored
func (s *Song) SongID() string {
	if s.ID != "" {
		return s.ID
	}
	return DeriveID(s.URL)
}

// ArtistOrDefault returns the artist or the Unknown sentinel
func (s *Song) ArtistOrDefault() string {
	if s.Artist == "" {
		return UnknownArtist
	}
	return s.Artist
}

// DifficultyOrDefault returns the difficulty label or Normal
func (s *Song) DifficultyOrDefault() string {
	if s.Difficulty == "" {
		return DefaultDifficulty
	}
	return s.Difficulty
}

// Timestamp returns scraped_at, falling back to updated_at
func (s *Song) Timestamp() string {
	if s.ScrapedAt != "" {
		return s.ScrapedAt
	}
	return s.UpdatedAt
}

// MarkScraped stamps both timestamps with t in ISO-8601 UTC
func (s *Song) MarkScraped(t time.Time) {
	ts := t.UTC().Format("2006-01-02T15:04:05.000000Z")
	s.ScrapedAt = ts
	s.UpdatedAt = ts
}

// HasCategory reports whether the song carries the tag, compared case-insensitively
func (s *Song) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// ParseCatalog decodes a catalog JSON document. An empty document is an empty catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Catalog{}, nil
	}
	var songs Catalog
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, err
	}
	// null entries carry no record
	kept := make(Catalog, 0, len(songs))
	for _, s := range songs {
		if s != nil {
			kept = append(kept, s)
		}
	}
	songs = kept

	// Stored documents are indented; keep variants in their compact form
	for _, s := range songs {
		for i, raw := range s.Sheets {
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err == nil {
				s.Sheets[i] = buf.Bytes()
			}
		}
	}
	return songs, nil
}

// Encode serializes the catalog as an indented JSON document
func (c Catalog) Encode() ([]byte, error) {
	if c == nil {
		c = Catalog{}
	}
	return marshalIndent(c)
}

// ContainsURL reports whether any song has the given URL
func (c Catalog) ContainsURL(pageURL string) bool {
	for _, s := range c {
		if s.URL == pageURL {
			return true
		}
	}
	return false
}

// marshalIndent encodes without HTML escaping so notation brackets and
// ampersands in titles stay readable in the stored document
func marshalIndent(v any) ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// EncodeSong serializes a single song document for the file-per-song layout
func EncodeSong(s *Song) ([]byte, error) {
	return marshalIndent(s)
}
