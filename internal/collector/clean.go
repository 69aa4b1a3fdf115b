package collector

import (
	"regexp"
	"strings"
)

// Boilerplate that surrounds the notation on detail pages. Section headers
// remove everything after them; control labels remove their own line.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?ms)^[ \t]*TRANS.*`),
	regexp.MustCompile(`(?m)^[ \t]*Speed:.*$`),
	regexp.MustCompile(`(?m)^[ \t]*Auto Play.*$`),
	regexp.MustCompile(`(?ms)^[ \t]*How to Play.*`),
	regexp.MustCompile(`(?m)^[ \t]*Sustain.*$`),
	regexp.MustCompile(`(?m)^[ \t]*Reset.*$`),
}

var inlineSpace = regexp.MustCompile(`[ \t]+`)

// Cleaner turns an extracted block into stored notes
type Cleaner func(string) string

// CleanNotes strips boilerplate, trims every line and drops blank lines
func CleanNotes(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, re := range boilerplate {
		text = re.ReplaceAllString(text, "")
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// CleanNotesCompact is CleanNotes plus collapsing whitespace runs within a
// line and writing rests as "-" without surrounding spaces
func CleanNotesCompact(text string) string {
	lines := strings.Split(CleanNotes(text), "\n")
	for i, line := range lines {
		line = inlineSpace.ReplaceAllString(line, " ")
		lines[i] = strings.ReplaceAll(line, " - ", "-")
	}
	return strings.Join(lines, "\n")
}

// CleanerFor returns the cleaner for a configured mode name
func CleanerFor(mode string) Cleaner {
	if mode == "compact" {
		return CleanNotesCompact
	}
	return CleanNotes
}
