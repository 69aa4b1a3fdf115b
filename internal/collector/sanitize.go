package collector

import (
	"path"
	"regexp"
	"strings"

	"pianosheets/internal/models"
)

var (
	unsafePathChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	pathSpaceRuns   = regexp.MustCompile(`\s+`)
)

// SanitizePathComponent strips everything but letters, digits, '_' and '-'
// and joins words with underscores
func SanitizePathComponent(s string) string {
	s = unsafePathChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return pathSpaceRuns.ReplaceAllString(s, "_")
}

// SongFilePath returns root/<artist>/<title>.json for the file-per-song layout.
// Empty components fall back to the Unknown artist and the song id.
func SongFilePath(root string, song *models.Song) string {
	artist := SanitizePathComponent(song.Artist)
	if artist == "" {
		artist = models.UnknownArtist
	}
	title := SanitizePathComponent(song.Title)
	if title == "" {
		title = SanitizePathComponent(song.SongID())
	}
	if title == "" {
		title = "untitled"
	}
	return path.Join(root, artist, title+".json")
}
