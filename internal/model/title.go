package model

import (
	"fmt"
	"strings"
)

// CountCopies returns how many bookmarks in entries point at a file with the
// same name as incoming.
func CountCopies(entries *Entries, incoming Bookmark) int {
	name := incoming.FileName()
	count := 0
	for _, b := range entries.Bookmarks() {
		if b.FileName() == name {
			count++
		}
	}
	return count
}

// DisambiguateTitle inserts "_(n)" before the extension of title.
// The extension starts at the last dot; titles without one (or with only a
// leading dot, like ".env") get the suffix appended.
//
//	DisambiguateTitle("a.ipynb", 1)  == "a_(1).ipynb"
//	DisambiguateTitle("a.tar.gz", 2) == "a.tar_(2).gz"
//	DisambiguateTitle("notes", 1)    == "notes_(1)"
func DisambiguateTitle(title string, n int) string {
	idx := strings.LastIndex(title, ".")
	if idx <= 0 {
		return fmt.Sprintf("%s_(%d)", title, n)
	}
	return fmt.Sprintf("%s_(%d)%s", title[:idx], n, title[idx:])
}
