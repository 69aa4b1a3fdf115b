package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pianosheets/internal/models"
)

// Common test constants
const (
	TestBaseURL = "https://playpianosheets.com"

	// TestNotes is plausible notation with the boilerplate the site wraps it in
	TestNotes = `Speed: 1x
Auto Play
[tu] [ey] [tu] [ey] t w e r q
[0q] e t y [8w] e u y t
Sustain
Reset
How to Play
Use your keyboard to play.`

	// TestCleanNotes is TestNotes after boilerplate removal
	TestCleanNotes = `[tu] [ey] [tu] [ey] t w e r q
[0q] e t y [8w] e u y t`
)

// SongBuilder provides a fluent interface for creating test songs
type SongBuilder struct {
	song *models.Song
}

// NewSongBuilder creates a new song builder with default values
func NewSongBuilder() *SongBuilder {
	return &SongBuilder{
		song: models.NewSong("Test Song", "Test Artist", TestBaseURL+"/sheets/test-song"),
	}
}

// WithTitle sets the song title
func (b *SongBuilder) WithTitle(title string) *SongBuilder {
	b.song.Title = title
	return b
}

// WithArtist sets the song artist
func (b *SongBuilder) WithArtist(artist string) *SongBuilder {
	b.song.Artist = artist
	return b
}

// WithSlug sets the URL to the detail page for slug and derives the id
func (b *SongBuilder) WithSlug(slug string) *SongBuilder {
	b.song.URL = TestBaseURL + "/sheets/" + slug
	b.song.ID = models.DeriveID(b.song.URL)
	return b
}

// WithDifficulty sets the difficulty label
func (b *SongBuilder) WithDifficulty(difficulty string) *SongBuilder {
	b.song.Difficulty = difficulty
	return b
}

// WithCategories sets the category tags
func (b *SongBuilder) WithCategories(categories ...string) *SongBuilder {
	b.song.Categories = categories
	return b
}

// WithSheets adds one sheet variant per notes string
func (b *SongBuilder) WithSheets(notes ...string) *SongBuilder {
	for _, n := range notes {
		raw, _ := json.Marshal(map[string]string{"notes": n})
		b.song.Sheets = append(b.song.Sheets, raw)
	}
	return b
}

// WithNotes sets the single notes block
func (b *SongBuilder) WithNotes(notes string) *SongBuilder {
	b.song.Notes = notes
	return b
}

// ScrapedAt stamps the song timestamps
func (b *SongBuilder) ScrapedAt(t time.Time) *SongBuilder {
	b.song.MarkScraped(t)
	return b
}

// Build returns the constructed song
func (b *SongBuilder) Build() *models.Song {
	return b.song
}

// FurElise is the canonical single-song catalog used in API examples
func FurElise() *models.Song {
	return NewSongBuilder().
		WithTitle("Fur Elise").
		WithArtist("Beethoven").
		WithSlug("fur-elise").
		WithDifficulty("Hard").
		WithCategories("Classical").
		Build()
}

// CreateTestCatalog creates a small catalog with varied fields
func CreateTestCatalog() models.Catalog {
	return models.Catalog{
		FurElise(),
		NewSongBuilder().WithTitle("Moonlight Sonata").WithArtist("Beethoven").WithSlug("moonlight-sonata").
			WithCategories("Classical", "Sad").WithSheets("[ab] c", "[de] f").Build(),
		NewSongBuilder().WithTitle("Megalovania").WithArtist(models.UnknownArtist).WithSlug("megalovania").
			WithDifficulty("Easy").WithCategories("Games").
			ScrapedAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).Build(),
	}
}

// ListingCard describes one item link on a listing page
type ListingCard struct {
	Slug      string
	Title     string // Rendered in h3 when set
	Artist    string // Rendered in p when set
	Thumbnail string
}

// ListingPageHTML renders a listing page in the target site's markup.
// Extra links that the collector must ignore are always included.
func ListingPageHTML(cards []ListingCard, hasNext bool) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><nav><a href="/category/all">All</a><a href="/category/classical">Classical</a></nav><main>`)
	for _, c := range cards {
		fmt.Fprintf(&sb, `<a href="/sheets/%s" class="card">`, c.Slug)
		if c.Thumbnail != "" {
			fmt.Fprintf(&sb, `<img src="%s">`, c.Thumbnail)
		}
		if c.Title != "" {
			fmt.Fprintf(&sb, `<h3>%s</h3>`, c.Title)
		}
		if c.Artist != "" {
			fmt.Fprintf(&sb, `<p>%s</p>`, c.Artist)
		}
		sb.WriteString(`</a>`)
	}
	sb.WriteString(`</main>`)
	if hasNext {
		sb.WriteString(`<a rel="next" href="?page=next">Next</a><a href="/sheets/page/2">2</a>`)
	}
	sb.WriteString(`</body></html>`)
	return sb.String()
}

// DetailPageHTML renders a detail page with difficulty buttons and a notes block
func DetailPageHTML(notes string, categories ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="tags">`)
	for _, c := range categories {
		fmt.Fprintf(&sb, `<a href="/category/%s">%s</a>`, strings.ToLower(c), c)
	}
	sb.WriteString(`</div><button>Easy</button><button>Hard Mode</button>`)
	sb.WriteString(`<div class="space-y-4">`)
	for _, line := range strings.Split(notes, "\n") {
		fmt.Fprintf(&sb, `<p>%s</p>`, line)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}
