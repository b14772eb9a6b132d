package layout

import "github.com/charmbracelet/x/ansi"

// StripANSI removes escape sequences from s.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// VisibleLength returns the number of terminal cells s occupies.
func VisibleLength(s string) int {
	return ansi.StringWidth(s)
}

// Truncate cuts s to width cells, ending it with the configured ellipsis.
// Escape sequences are kept, so highlighted filter matches survive.
func Truncate(s string, width int, cfg TextConfig) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	if width < ansi.StringWidth(cfg.Ellipsis) {
		return ansi.Truncate(cfg.Ellipsis, width, "")
	}
	return ansi.Truncate(s, width, cfg.Ellipsis)
}

// TruncateWithPrefixSuffix fits prefix+text+suffix into width, cutting text
// so the prefix and suffix stay intact:
//
//	TruncateWithPrefixSuffix("Uncategorized", 12, "[", "]", cfg) == "[Uncateg...]"
//
// When even the decorations do not fit, the whole string is cut instead.
func TruncateWithPrefixSuffix(text string, width int, prefix, suffix string, cfg TextConfig) (string, bool) {
	if width <= 0 {
		return "", true
	}
	full := prefix + text + suffix
	if ansi.StringWidth(full) <= width {
		return full, false
	}

	room := width - ansi.StringWidth(prefix) - ansi.StringWidth(suffix)
	if room <= ansi.StringWidth(cfg.Ellipsis) {
		return Truncate(full, width, cfg), true
	}
	return prefix + ansi.Truncate(text, room, cfg.Ellipsis) + suffix, true
}
