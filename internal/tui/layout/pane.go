package layout

// CalculatePaneHeight computes the list height for the launcher pane.
// Returns at least MinHeight.
func CalculatePaneHeight(terminalHeight int, cfg PaneConfig) int {
	return max(terminalHeight-cfg.HeightReduction, cfg.MinHeight)
}

// CalculatePaneWidth computes the launcher pane width: the terminal width
// minus app padding, capped at MaxWidth.
func CalculatePaneWidth(terminalWidth int, cfg PaneConfig) int {
	width := min(terminalWidth-cfg.ContentPadding, cfg.MaxWidth)
	if width < 1 {
		return 1
	}
	return width
}

// CalculateItemWidth computes the width available for entry content.
func CalculateItemWidth(paneWidth int, cfg PaneConfig) int {
	return max(paneWidth-cfg.ContentPadding, 1)
}

// CalculateVisibleHeight computes the visible row count in a pane.
func CalculateVisibleHeight(paneHeight, headerLines int) int {
	height := paneHeight - headerLines
	if height < 1 {
		return 1
	}
	return height
}

// CalculateViewportOffset calculates the scroll offset needed to keep the
// selected row visible within the viewport.
func CalculateViewportOffset(selected, total, viewportHeight int) int {
	if total <= viewportHeight {
		return 0
	}

	// Keep selection roughly centered
	offset := max(selected-viewportHeight/2, 0)
	return min(offset, total-viewportHeight)
}
