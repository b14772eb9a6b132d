package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "run")
}

// HintSet is an ordered collection of hints by group.
type HintSet struct {
	Nav    []Hint
	Action []Hint
	System []Hint
}

// All returns all hints flattened in display order: Nav + Action + System.
func (h HintSet) All() []Hint {
	result := make([]Hint, 0, len(h.Nav)+len(h.Action)+len(h.System))
	result = append(result, h.Nav...)
	result = append(result, h.Action...)
	result = append(result, h.System...)
	return result
}

// renderHints renders hints for the bottom bar: "j/k:move Enter:run q:quit"
func (s Styles) renderHints(hints HintSet) string {
	all := hints.All()
	if len(all) == 0 {
		return ""
	}

	parts := make([]string, len(all))
	for i, h := range all {
		parts[i] = s.HintKey.Render(h.Key) + ":" + s.HintDesc.Render(h.Desc)
	}
	return strings.Join(parts, " ")
}

// renderHintsInline renders hints for prompts: "Enter confirm  Esc cancel"
func (s Styles) renderHintsInline(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = s.HintKey.Render(h.Key) + " " + s.HintDesc.Render(h.Desc)
	}
	return strings.Join(parts, "  ")
}

// getContextualHints returns the launcher hints for the current mode.
func (a App) getContextualHints() HintSet {
	switch a.mode {
	case ModeFilter:
		return HintSet{
			Nav:    []Hint{{Key: "type", Desc: "filter"}},
			Action: []Hint{{Key: "Enter", Desc: "apply"}},
			System: []Hint{{Key: "Esc", Desc: "clear"}},
		}
	default:
		return HintSet{
			Nav: []Hint{
				{Key: "j/k", Desc: "move"},
				{Key: "gg/G", Desc: "top/bottom"},
			},
			Action: []Hint{
				{Key: "Enter", Desc: "run"},
				{Key: "/", Desc: "filter"},
			},
			System: []Hint{{Key: "q", Desc: "quit"}},
		}
	}
}
