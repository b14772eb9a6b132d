package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/tui/layout"
)

// Source supplies launcher entries. host.Memory satisfies it.
type Source interface {
	LauncherItems() []host.LauncherItem
	Label(id string) string
}

// Mode is the launcher input mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
)

// App is the quick-launch panel: sections of commands the user can run.
type App struct {
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	title   string
	entries []Entry
	matches []match
	filter  FilterState
	mode    Mode
	cursor  int

	// For gg command
	lastKeyWasG bool

	selected *Entry

	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Source       Source
	Title        string
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
}

// NewApp creates a new launcher over the source's current entries.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	cfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		cfg = *params.LayoutConfig
	}

	title := params.Title
	if title == "" {
		title = "Launcher"
	}

	app := App{
		keys:         keys,
		styles:       styles,
		layoutConfig: cfg,
		title:        title,
		filter:       NewFilterState(cfg),
		width:        80,
		height:       24,
	}
	if params.Source != nil {
		app.entries = BuildEntries(params.Source.LauncherItems(), params.Source.Label)
	}
	app.refreshMatches()
	return app
}

// WithDimensions returns a copy sized to width x height.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

func (a *App) refreshMatches() {
	titles := make([]string, len(a.entries))
	for i, e := range a.entries {
		titles[i] = e.Title()
	}
	a.matches = filterStrings(a.filter.Query, titles)
	if a.cursor >= len(a.matches) {
		a.cursor = max(len(a.matches)-1, 0)
	}
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Entries returns the entries currently shown, filter applied.
func (a App) Entries() []Entry {
	shown := make([]Entry, len(a.matches))
	for i, m := range a.matches {
		shown[i] = a.entries[m.Index]
	}
	return shown
}

// Selected returns the entry chosen with Enter. ok is false when the user
// quit without choosing.
func (a App) Selected() (Entry, bool) {
	if a.selected == nil {
		return Entry{}, false
	}
	return *a.selected, true
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if a.mode == ModeFilter {
			return a.updateFilter(msg)
		}
		return a.updateNormal(msg)
	}

	return a, nil
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Cancel):
		if a.filter.Query != "" {
			a.filter.Reset()
			a.refreshMatches()
			return a, nil
		}
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.matches)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.matches) > 0 {
			a.cursor = len(a.matches) - 1
		}

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		return a, tea.Batch(a.filter.Input.Focus(), textinput.Blink)

	case key.Matches(msg, a.keys.Select):
		if len(a.matches) == 0 {
			return a, nil
		}
		entry := a.entries[a.matches[a.cursor].Index]
		a.selected = &entry
		return a, tea.Quit
	}

	return a, nil
}

func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeNormal
		a.filter.Reset()
		a.refreshMatches()
		return a, nil

	case tea.KeyEnter:
		a.mode = ModeNormal
		a.filter.Input.Blur()
		return a, nil

	case tea.KeyCtrlC:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.filter.Input, cmd = a.filter.Input.Update(msg)
	if q := a.filter.Input.Value(); q != a.filter.Query {
		a.filter.Query = q
		a.cursor = 0
		a.refreshMatches()
	}
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
