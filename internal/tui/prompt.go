package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/nbm/internal/tui/layout"
)

// Choice prompts the user to pick one of a fixed list of strings.
type Choice struct {
	keys   KeyMap
	styles Styles
	cfg    layout.LayoutConfig

	title   string
	choices []string
	matches []match
	filter  FilterState
	mode    Mode
	cursor  int

	lastKeyWasG bool
	done        bool
	cancelled   bool

	width int
}

// NewChoice creates a choice prompt over choices.
func NewChoice(title string, choices []string) Choice {
	cfg := layout.DefaultConfig()
	c := Choice{
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		cfg:     cfg,
		title:   title,
		choices: choices,
		filter:  NewFilterState(cfg),
		width:   80,
	}
	c.matches = filterStrings("", choices)
	return c
}

// Result returns the chosen value. ok is false when the prompt was cancelled.
func (c Choice) Result() (string, bool) {
	if !c.done || c.cancelled || len(c.matches) == 0 {
		return "", false
	}
	return c.choices[c.matches[c.cursor].Index], true
}

// Init implements tea.Model.
func (c Choice) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (c Choice) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		return c, nil

	case tea.KeyMsg:
		if c.mode == ModeFilter {
			return c.updateFilter(msg)
		}
		return c.updateNormal(msg)
	}
	return c, nil
}

func (c Choice) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, c.keys.Top) {
		if c.lastKeyWasG {
			c.cursor = 0
			c.lastKeyWasG = false
			return c, nil
		}
		c.lastKeyWasG = true
		return c, nil
	}
	c.lastKeyWasG = false

	switch {
	case key.Matches(msg, c.keys.Quit), key.Matches(msg, c.keys.Cancel):
		c.cancelled = true
		return c, tea.Quit

	case key.Matches(msg, c.keys.Down):
		if c.cursor < len(c.matches)-1 {
			c.cursor++
		}

	case key.Matches(msg, c.keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}

	case key.Matches(msg, c.keys.Bottom):
		if len(c.matches) > 0 {
			c.cursor = len(c.matches) - 1
		}

	case key.Matches(msg, c.keys.Filter):
		c.mode = ModeFilter
		return c, tea.Batch(c.filter.Input.Focus(), textinput.Blink)

	case key.Matches(msg, c.keys.Select):
		if len(c.matches) == 0 {
			return c, nil
		}
		c.done = true
		return c, tea.Quit
	}
	return c, nil
}

func (c Choice) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		c.mode = ModeNormal
		c.filter.Reset()
		c.matches = filterStrings("", c.choices)
		c.cursor = 0
		return c, nil

	case tea.KeyEnter:
		c.mode = ModeNormal
		c.filter.Input.Blur()
		return c, nil

	case tea.KeyCtrlC:
		c.cancelled = true
		return c, tea.Quit
	}

	var cmd tea.Cmd
	c.filter.Input, cmd = c.filter.Input.Update(msg)
	if q := c.filter.Input.Value(); q != c.filter.Query {
		c.filter.Query = q
		c.matches = filterStrings(q, c.choices)
		c.cursor = 0
	}
	return c, cmd
}

// View implements tea.Model.
func (c Choice) View() string {
	if c.done || c.cancelled {
		return ""
	}

	width := layout.CalculateModalWidth(c.width, c.cfg.Modal.WidthPercent, c.cfg.Modal)
	itemWidth := max(width-6, 1)

	var b strings.Builder
	b.WriteString(c.styles.Title.Render(c.title) + "\n\n")

	if c.mode == ModeFilter {
		b.WriteString("/" + c.filter.Input.View() + "\n")
	} else if c.filter.Query != "" {
		b.WriteString(c.styles.Caption.Render("/"+c.filter.Query) + "\n")
	}

	if len(c.matches) == 0 {
		b.WriteString(c.styles.Empty.Render("(no matches)") + "\n")
	}

	start, end := layout.CalculateVisibleListItems(c.cfg.Modal.MaxVisible, c.cursor, len(c.matches))
	for i := start; i < end; i++ {
		m := c.matches[i]
		if i == c.cursor {
			line, _ := layout.TruncateWithPrefixSuffix(c.choices[m.Index], itemWidth, "▸ ", "", c.cfg.Text)
			b.WriteString(c.styles.ItemSelected.Render(line) + "\n")
			continue
		}
		line := "  " + highlight(c.choices[m.Index], m.MatchedIndexes)
		if layout.VisibleLength(line) > itemWidth {
			line = layout.Truncate(line, itemWidth, c.cfg.Text)
		}
		b.WriteString(c.styles.Item.Render(line) + "\n")
	}

	b.WriteString("\n" + c.styles.renderHintsInline([]Hint{
		{Key: "Enter", Desc: "select"},
		{Key: "/", Desc: "filter"},
		{Key: "Esc", Desc: "cancel"},
	}))

	return c.styles.Modal.Width(width).Render(b.String()) + "\n"
}

// Input prompts the user for a single line of text.
type Input struct {
	styles Styles
	cfg    layout.LayoutConfig

	title string
	input textinput.Model

	done      bool
	cancelled bool

	width int
}

// NewInput creates a text prompt.
func NewInput(title string) Input {
	cfg := layout.DefaultConfig()
	input := textinput.New()
	input.CharLimit = cfg.Input.TextCharLimit
	input.Width = cfg.Input.Width
	input.Focus()

	return Input{
		styles: DefaultStyles(),
		cfg:    cfg,
		title:  title,
		input:  input,
		width:  80,
	}
}

// Result returns the entered text. ok is false when the prompt was cancelled.
func (p Input) Result() (string, bool) {
	if !p.done || p.cancelled {
		return "", false
	}
	return strings.TrimSpace(p.input.Value()), true
}

// Init implements tea.Model.
func (p Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (p Input) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			p.cancelled = true
			return p, tea.Quit
		case tea.KeyEnter:
			p.done = true
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p Input) View() string {
	if p.done || p.cancelled {
		return ""
	}

	width := layout.CalculateModalWidth(p.width, p.cfg.Modal.WidthPercent, p.cfg.Modal)

	var b strings.Builder
	b.WriteString(p.styles.Title.Render(p.title) + "\n\n")
	b.WriteString(p.input.View() + "\n\n")
	b.WriteString(p.styles.renderHintsInline([]Hint{
		{Key: "Enter", Desc: "confirm"},
		{Key: "Esc", Desc: "cancel"},
	}))

	return p.styles.Modal.Width(width).Render(b.String()) + "\n"
}
