package layout

// LayoutConfig holds the sizing values shared by the launcher and prompts.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds launcher pane dimensions.
type PaneConfig struct {
	// HeightReduction is subtracted from the terminal height for the list.
	// app padding (1) + title (1) + pane borders (2) + help bar (2) = 6
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// MaxWidth caps the pane width on wide terminals.
	MaxWidth int

	// ContentPadding is subtracted from the pane width for entry rendering.
	ContentPadding int
}

// ModalConfig holds prompt dialog dimensions.
type ModalConfig struct {
	// WidthPercent is the prompt width as a percentage of the terminal width.
	WidthPercent int

	MinWidth int
	MaxWidth int

	// MaxVisible is the number of choices shown before scrolling.
	MaxVisible int
}

// InputConfig holds text input limits.
type InputConfig struct {
	TextCharLimit   int
	FilterCharLimit int
	Width           int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis marks truncated text.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction: 6,
			MinHeight:       5,
			MaxWidth:        100,
			ContentPadding:  4,
		},
		Modal: ModalConfig{
			WidthPercent: 50,
			MinWidth:     40,
			MaxWidth:     80,
			MaxVisible:   10,
		},
		Input: InputConfig{
			TextCharLimit:   200,
			FilterCharLimit: 50,
			Width:           40,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
