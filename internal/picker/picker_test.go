package picker

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/search"
)

func testResults() []search.Result {
	return []search.Result{
		{Bookmark: model.Bookmark{Title: "report.ipynb", AbsPath: "/data/report.ipynb", Category: "Work"}},
		{Bookmark: model.Bookmark{Title: "report_(1).ipynb", AbsPath: "/mnt/report.ipynb", Category: "Team", Disabled: true}},
	}
}

func press(p Picker, msg tea.KeyMsg) (Picker, tea.Cmd) {
	newModel, cmd := p.Update(msg)
	return newModel.(Picker), cmd
}

func TestPicker_InitialState(t *testing.T) {
	p := New(testResults(), "rep")

	if p.cursor != 0 {
		t.Errorf("expected cursor at 0, got %d", p.cursor)
	}
	if len(p.results) != 2 {
		t.Errorf("expected 2 results, got %d", len(p.results))
	}
}

func TestPicker_Navigation(t *testing.T) {
	tests := []struct {
		name  string
		start int
		msg   tea.KeyMsg
		want  int
	}{
		{"j moves down", 0, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 1},
		{"j stops at last", 1, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 1},
		{"k moves up", 1, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 0},
		{"k stops at first", 0, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 0},
		{"down arrow", 0, tea.KeyMsg{Type: tea.KeyDown}, 1},
		{"up arrow", 1, tea.KeyMsg{Type: tea.KeyUp}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(testResults(), "rep")
			p.cursor = tt.start

			p, _ = press(p, tt.msg)

			if p.cursor != tt.want {
				t.Errorf("expected cursor at %d, got %d", tt.want, p.cursor)
			}
		})
	}
}

func TestPicker_TopBottom(t *testing.T) {
	p := New(testResults(), "rep")

	p, _ = press(p, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	if p.cursor != 1 {
		t.Fatalf("expected G to move to the last result, got %d", p.cursor)
	}

	p, _ = press(p, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	if p.cursor != 1 {
		t.Errorf("expected a single g to keep the cursor, got %d", p.cursor)
	}
	p, _ = press(p, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	if p.cursor != 0 {
		t.Errorf("expected gg to move to the first result, got %d", p.cursor)
	}
}

func TestPicker_SelectEmpty(t *testing.T) {
	p := New(nil, "zzz")

	p, cmd := press(p, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("expected no command when there is nothing to select")
	}
	if _, ok := p.SelectedBookmark(); ok {
		t.Error("expected no selection")
	}
}

func TestPicker_SelectItem(t *testing.T) {
	p := New(testResults(), "rep")
	p.cursor = 1

	p, cmd := press(p, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Error("expected quit command after selection")
	}
	got, ok := p.SelectedBookmark()
	if !ok {
		t.Fatal("expected a selection after Enter")
	}
	if got.Title != "report_(1).ipynb" {
		t.Errorf("expected report_(1).ipynb, got %q", got.Title)
	}
}

func TestPicker_Cancel(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		p := New(testResults(), "rep")

		p, cmd := press(p, msg)

		if !p.Cancelled() {
			t.Errorf("expected cancelled after %q", msg.String())
		}
		if cmd == nil {
			t.Errorf("expected quit command after %q", msg.String())
		}
		if _, ok := p.SelectedBookmark(); ok {
			t.Error("expected no selection when cancelled")
		}
	}
}

func TestPicker_View(t *testing.T) {
	p := New(testResults(), "rep")

	view := p.View()

	for _, want := range []string{"Search: rep (2 results)", "report.ipynb", "[Work]", "/mnt/report.ipynb", "(unavailable)"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}
