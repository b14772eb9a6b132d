package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Terminal runs prompts as inline bubbletea programs. It implements
// host.Prompter and host.FilePicker. Nil In and Out use the process stdio.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Choose shows a choice prompt.
func (t Terminal) Choose(ctx context.Context, title string, choices []string) (string, bool, error) {
	final, err := t.run(ctx, NewChoice(title, choices))
	if err != nil {
		return "", false, err
	}
	choice, ok := final.(Choice).Result()
	return choice, ok, nil
}

// Text shows a single-line text prompt.
func (t Terminal) Text(ctx context.Context, title string) (string, bool, error) {
	final, err := t.run(ctx, NewInput(title))
	if err != nil {
		return "", false, err
	}
	value, ok := final.(Input).Result()
	return value, ok, nil
}

// PickFiles asks for a comma-separated list of paths. A cancelled prompt
// selects nothing.
func (t Terminal) PickFiles(ctx context.Context) ([]string, error) {
	value, ok, err := t.Text(ctx, "Files to bookmark (comma-separated)")
	if err != nil || !ok {
		return nil, err
	}
	return SplitPaths(value), nil
}

// Launch shows the launcher over source and returns the chosen entry.
func (t Terminal) Launch(ctx context.Context, source Source, title string) (Entry, bool, error) {
	app := NewApp(AppParams{Source: source, Title: title})
	final, err := t.run(ctx, app, tea.WithAltScreen())
	if err != nil {
		return Entry{}, false, err
	}
	entry, ok := final.(App).Selected()
	return entry, ok, nil
}

func (t Terminal) run(ctx context.Context, model tea.Model, extra ...tea.ProgramOption) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}
	opts = append(opts, extra...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}

// SplitPaths splits a comma-separated path list, dropping blanks.
func SplitPaths(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
