// Package search provides fuzzy title search over bookmarks.
package search

import (
	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/nbm/internal/model"
)

// Result represents a fuzzy search match.
type Result struct {
	Bookmark       model.Bookmark
	MatchedIndexes []int
	Score          int
}

// bookmarkTitles implements fuzzy.Source for a bookmark slice.
type bookmarkTitles []model.Bookmark

func (bt bookmarkTitles) String(i int) string {
	return bt[i].Title
}

func (bt bookmarkTitles) Len() int {
	return len(bt)
}

// Bookmarks searches bookmarks by title using fuzzy matching.
// Returns results sorted by match score (best first). An empty query matches
// everything in the given order.
func Bookmarks(bookmarks []model.Bookmark, query string) []Result {
	if query == "" {
		results := make([]Result, len(bookmarks))
		for i, b := range bookmarks {
			results[i] = Result{Bookmark: b}
		}
		return results
	}

	matches := fuzzy.FindFrom(query, bookmarkTitles(bookmarks))

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Bookmark:       bookmarks[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Best returns the highest scoring bookmark for query. An exact title match
// always wins.
func Best(bookmarks []model.Bookmark, query string) (model.Bookmark, bool) {
	for _, b := range bookmarks {
		if b.Title == query {
			return b, true
		}
	}
	if query == "" {
		return model.Bookmark{}, false
	}
	results := Bookmarks(bookmarks, query)
	if len(results) == 0 {
		return model.Bookmark{}, false
	}
	return results[0].Bookmark, true
}
