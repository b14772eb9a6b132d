// Package picker lets the user choose one bookmark out of several fuzzy
// search matches.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/search"
	"github.com/nikbrunner/nbm/internal/tui"
	"github.com/nikbrunner/nbm/internal/tui/layout"
)

// linesPerResult is the height of one result: title row plus path row.
const linesPerResult = 2

// Picker lists search results, two rows each, and quits once one is chosen.
type Picker struct {
	results []search.Result
	query   string

	keys   tui.KeyMap
	styles tui.Styles
	layout layout.LayoutConfig

	cursor      int
	lastKeyWasG bool
	chosen      *model.Bookmark
	cancelled   bool
	width       int
	height      int
}

// New creates a Picker over results found for query.
func New(results []search.Result, query string) Picker {
	return Picker{
		results: results,
		query:   query,
		keys:    tui.DefaultKeyMap(),
		styles:  tui.DefaultStyles(),
		layout:  layout.DefaultConfig(),
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		if key.Matches(msg, p.keys.Top) {
			if p.lastKeyWasG {
				p.cursor = 0
				p.lastKeyWasG = false
			} else {
				p.lastKeyWasG = true
			}
			return p, nil
		}
		p.lastKeyWasG = false

		switch {
		case key.Matches(msg, p.keys.Quit), key.Matches(msg, p.keys.Cancel):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.results)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Bottom):
			if len(p.results) > 0 {
				p.cursor = len(p.results) - 1
			}
		case key.Matches(msg, p.keys.Select):
			if len(p.results) == 0 {
				return p, nil
			}
			b := p.results[p.cursor].Bookmark
			p.chosen = &b
			return p, tea.Quit
		}
	}
	return p, nil
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder
	cfg := p.layout.Text

	b.WriteString(p.styles.Title.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.results))))
	b.WriteString("\n\n")

	width := layout.CalculatePaneWidth(p.width, p.layout.Pane)
	visible := max(layout.CalculatePaneHeight(p.height, p.layout.Pane)/linesPerResult, 1)
	offset := layout.CalculateViewportOffset(p.cursor, len(p.results), visible)
	end := min(offset+visible, len(p.results))

	for i := offset; i < end; i++ {
		bm := p.results[i].Bookmark
		caption, _ := layout.TruncateWithPrefixSuffix(model.NormalizeCategory(bm.Category), width/3, "[", "]", cfg)

		title := bm.Title
		if bm.Disabled {
			title += " (unavailable)"
		}
		title = layout.Truncate(title, width-layout.VisibleLength(caption)-3, cfg)

		style := p.styles.Item
		if i == p.cursor {
			style = p.styles.ItemSelected
		}
		b.WriteString(style.Render(title) + " " + p.styles.Caption.Render(caption) + "\n")
		b.WriteString("   " + p.styles.Caption.Render(layout.Truncate(bm.AbsPath, width-3, cfg)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.Help.Render("j/k move  gg/G top/bottom  Enter open  q/Esc cancel"))
	return p.styles.App.Render(b.String())
}

// SelectedBookmark returns the chosen bookmark. ok is false when the picker
// was cancelled or nothing was chosen.
func (p Picker) SelectedBookmark() (b model.Bookmark, ok bool) {
	if p.cancelled || p.chosen == nil {
		return model.Bookmark{}, false
	}
	return *p.chosen, true
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
