package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/nbm/internal/tui/layout"
)

// FilterState holds the "/" filter shared by the launcher and choice prompt.
type FilterState struct {
	Input textinput.Model
	Query string
}

// NewFilterState creates a FilterState with an initialized input.
func NewFilterState(cfg layout.LayoutConfig) FilterState {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "filter..."
	input.CharLimit = cfg.Input.FilterCharLimit
	input.Width = cfg.Input.Width
	return FilterState{Input: input}
}

// Reset clears the query and blurs the input.
func (f *FilterState) Reset() {
	f.Input.Reset()
	f.Input.Blur()
	f.Query = ""
}

// match is a row surviving the filter. Index points into the unfiltered list.
type match struct {
	Index          int
	MatchedIndexes []int
}

// filterStrings returns the rows matching query, best first. An empty
// query keeps every row in order.
func filterStrings(query string, rows []string) []match {
	query = strings.TrimSpace(query)
	if query == "" {
		all := make([]match, len(rows))
		for i := range rows {
			all[i] = match{Index: i}
		}
		return all
	}

	found := fuzzy.Find(query, rows)
	matches := make([]match, len(found))
	for i, m := range found {
		matches[i] = match{Index: m.Index, MatchedIndexes: m.MatchedIndexes}
	}
	return matches
}

// highlight underlines the matched bytes of s.
func highlight(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}
	set := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		set[idx] = true
	}

	var b strings.Builder
	for i, r := range s {
		if set[i] {
			b.WriteString("\033[1;4m")
			b.WriteRune(r)
			b.WriteString("\033[22;24m")
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
