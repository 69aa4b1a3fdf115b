package collector

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrNoNotes is returned when no selector yields plausible notation
var ErrNoNotes = errors.New("no notes found")

// minCleanLength is the shortest cleaned text accepted as notation
const minCleanLength = 20

// Extraction is a successful notes lookup
type Extraction struct {
	Notes    string // Cleaned notation
	Raw      string // Text before cleanup
	Selector string // Selector that produced it
}

// Extract tries the selectors in order and returns the first block that
// looks like notation both before and after cleaning. A selector that cannot
// be read is skipped like one that matches nothing.
func Extract(src TextSource, selectors []string, minLength int, clean Cleaner) (*Extraction, error) {
	if clean == nil {
		clean = CleanNotes
	}

	for _, sel := range selectors {
		texts, err := src.Texts(sel)
		if err != nil {
			slog.Debug("Notes selector unreadable", "selector", sel, "error", err)
			continue
		}
		for _, raw := range texts {
			if !looksLikeNotation(raw, minLength) {
				continue
			}
			notes := clean(raw)
			if !looksLikeNotation(notes, minCleanLength) {
				continue
			}
			return &Extraction{Notes: notes, Raw: raw, Selector: sel}, nil
		}
	}
	return nil, ErrNoNotes
}

// looksLikeNotation requires bracketed chords and more than minLength characters
func looksLikeNotation(text string, minLength int) bool {
	return len(text) > minLength && strings.Contains(text, "[") && strings.Contains(text, "]")
}
