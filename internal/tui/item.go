package tui

import (
	"sort"

	"github.com/nikbrunner/nbm/internal/host"
)

// Entry is one launcher row: a command reachable from the quick-launch panel.
type Entry struct {
	Section string
	Label   string
	Item    host.LauncherItem
}

// Title returns the display title for the entry.
func (e Entry) Title() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Item.Command
}

// BuildEntries groups launcher items by section in first-appearance order
// and orders each section by rank. label resolves a command id to its label.
func BuildEntries(items []host.LauncherItem, label func(id string) string) []Entry {
	sections := make(map[string]int)
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if _, ok := sections[item.Category]; !ok {
			sections[item.Category] = len(sections)
		}
		e := Entry{Section: item.Category, Item: item}
		if label != nil {
			e.Label = label(item.Command)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := sections[entries[i].Section], sections[entries[j].Section]
		if si != sj {
			return si < sj
		}
		return entries[i].Item.Rank < entries[j].Item.Rank
	})
	return entries
}
