package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/nbm/internal/tui/layout"
)

// renderView renders the title, the entry pane and the help bar.
func (a App) renderView() string {
	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	paneWidth := layout.CalculatePaneWidth(a.width, a.layoutConfig.Pane)

	title := a.styles.Title.Render(a.title)
	pane := a.renderPane(paneWidth, paneHeight)
	help := a.styles.Help.Render(a.styles.renderHints(a.getContextualHints()))

	return a.styles.App.Render(lipgloss.JoinVertical(lipgloss.Left, title, pane, help))
}

func (a App) renderPane(width, height int) string {
	var content strings.Builder

	headerLines := 0
	if a.mode == ModeFilter {
		content.WriteString("/" + a.filter.Input.View() + "\n")
		headerLines = 1
	} else if a.filter.Query != "" {
		content.WriteString(a.styles.Caption.Render("/"+a.filter.Query) + "\n")
		headerLines = 1
	}

	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)
	rows, cursorRow := a.buildRows(itemWidth)

	switch {
	case len(rows) == 0 && a.filter.Query != "":
		content.WriteString(a.styles.Empty.Render("(no matches)"))
	case len(rows) == 0:
		content.WriteString(a.styles.Empty.Render("(no commands)"))
	default:
		visible := layout.CalculateVisibleHeight(height, headerLines)
		offset := layout.CalculateViewportOffset(cursorRow, len(rows), visible)
		for i := offset; i < len(rows) && i < offset+visible; i++ {
			content.WriteString(rows[i] + "\n")
		}
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

// buildRows lays entries out under section headers. While a filter is
// active rows are in match order and the section is shown as a caption.
func (a App) buildRows(maxWidth int) ([]string, int) {
	var rows []string
	cursorRow := 0
	section := ""
	for i, m := range a.matches {
		e := a.entries[m.Index]
		label := highlight(e.Title(), m.MatchedIndexes)

		if a.filter.Query == "" {
			if i == 0 || e.Section != section {
				rows = append(rows, a.styles.Section.Render(e.Section))
				section = e.Section
			}
		} else {
			caption, _ := layout.TruncateWithPrefixSuffix(e.Section, maxWidth/3, "[", "]", a.layoutConfig.Text)
			label += " " + a.styles.Caption.Render(caption)
		}

		if layout.VisibleLength(label) > maxWidth {
			label = layout.Truncate(label, maxWidth, a.layoutConfig.Text)
		}

		style := a.styles.Item
		if i == a.cursor {
			style = a.styles.ItemSelected
			cursorRow = len(rows)
		}
		rows = append(rows, style.Render(label))
	}
	return rows, cursorRow
}
