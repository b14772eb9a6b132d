package model_test

import (
	"encoding/json"
	"testing"

	"github.com/nikbrunner/nbm/internal/model"
)

func sample(title, abs, category string) model.Bookmark {
	return model.Bookmark{
		Title:      title,
		BasePath:   "work/" + title,
		AbsPath:    abs,
		ActivePath: "work/" + title,
		Category:   category,
	}
}

func TestBookmark_JSONRecordFields(t *testing.T) {
	b := model.Bookmark{
		Title:      "a.ipynb",
		BasePath:   "x/a.ipynb",
		AbsPath:    "/srv/x/a.ipynb",
		ActivePath: ".tmp/a.ipynb",
		Disabled:   true,
		Category:   "Work",
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	for _, key := range []string{"title", "basePath", "absPath", "activePath", "disabled", "category"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing record field %q in %s", key, data)
		}
	}
	if fields["disabled"] != true {
		t.Errorf("expected disabled to be a boolean true, got %v", fields["disabled"])
	}
}

func TestNewBookmark_DefaultsCategoryAndActivePath(t *testing.T) {
	b := model.NewBookmark(model.NewBookmarkParams{
		Title:    "a.ipynb",
		BasePath: "x/a.ipynb",
		AbsPath:  "/x/a.ipynb",
	})

	if b.Category != model.DefaultCategory {
		t.Errorf("expected category %q, got %q", model.DefaultCategory, b.Category)
	}
	if b.ActivePath != b.BasePath {
		t.Errorf("expected active path %q, got %q", b.BasePath, b.ActivePath)
	}
}

func TestBookmark_Equal(t *testing.T) {
	base := sample("a.ipynb", "/x/a.ipynb", "Work")

	tests := []struct {
		name   string
		mutate func(b *model.Bookmark)
		want   bool
	}{
		{"identical", func(b *model.Bookmark) {}, true},
		{"title differs", func(b *model.Bookmark) { b.Title = "b.ipynb" }, false},
		{"base path differs", func(b *model.Bookmark) { b.BasePath = "other" }, false},
		{"abs path differs", func(b *model.Bookmark) { b.AbsPath = "/y/a.ipynb" }, false},
		{"active path differs", func(b *model.Bookmark) { b.ActivePath = ".tmp/a.ipynb" }, false},
		{"disabled differs", func(b *model.Bookmark) { b.Disabled = true }, false},
		{"category differs", func(b *model.Bookmark) { b.Category = "Home" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if got := base.Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmark_IsTemporaryAndOpenPath(t *testing.T) {
	b := sample("a.ipynb", "/x/a.ipynb", "Work")
	if b.IsTemporary("") {
		t.Error("expected regular bookmark not to be temporary")
	}
	if b.OpenPath() != "work/a.ipynb" {
		t.Errorf("expected open path work/a.ipynb, got %q", b.OpenPath())
	}

	b.ActivePath = ".tmp/a.ipynb"
	if !b.IsTemporary(model.DefaultTempPrefix) {
		t.Error("expected .tmp active path to be temporary")
	}
	if b.OpenPath() != ".tmp/a.ipynb" {
		t.Errorf("expected open path .tmp/a.ipynb, got %q", b.OpenPath())
	}
}

func TestEntries_PreservesInsertionOrder(t *testing.T) {
	e := model.NewEntries(
		sample("c.ipynb", "/c.ipynb", "Work"),
		sample("a.ipynb", "/a.ipynb", "Work"),
		sample("b.ipynb", "/b.ipynb", "Work"),
	)

	// Overwrite keeps the slot
	e.Set("a.ipynb", sample("a.ipynb", "/moved/a.ipynb", "Work"))

	want := []string{"c.ipynb", "a.ipynb", "b.ipynb"}
	got := e.Titles()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order not preserved: got %v, want %v", got, want)
		}
	}

	if !e.Delete("a.ipynb") {
		t.Fatal("expected delete to report a removed entry")
	}
	if e.Delete("a.ipynb") {
		t.Error("expected second delete to be a no-op")
	}
	if e.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", e.Len())
	}
}

func TestEntries_JSONPairs(t *testing.T) {
	e := model.NewEntries(
		sample("b.ipynb", "/b.ipynb", "Work"),
		sample("a.ipynb", "/a.ipynb", model.DefaultCategory),
	)

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("expected array of pairs, got %s: %v", data, err)
	}
	if len(raw) != 2 || len(raw[0]) != 2 {
		t.Fatalf("unexpected layout: %s", data)
	}

	var decoded model.Entries
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !model.CompareMaps(e, &decoded) {
		t.Error("expected decoded entries to equal the original")
	}
	if decoded.Titles()[0] != "b.ipynb" {
		t.Errorf("expected first title b.ipynb, got %q", decoded.Titles()[0])
	}
}

func TestEntries_UnmarshalRejectsMalformedPairs(t *testing.T) {
	var e model.Entries
	if err := json.Unmarshal([]byte(`[["only-title"]]`), &e); err == nil {
		t.Error("expected error for single-element pair")
	}
}

func TestEntries_UnmarshalKeysByPairTitle(t *testing.T) {
	data := `[["b.ipynb",{"title":"stale","basePath":"b.ipynb","absPath":"/b.ipynb","activePath":"b.ipynb","disabled":false,"category":"Work"}]]`

	var e model.Entries
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	b, ok := e.Get("b.ipynb")
	if !ok {
		t.Fatal("expected entry under b.ipynb")
	}
	if b.Title != "b.ipynb" {
		t.Errorf("expected title b.ipynb, got %q", b.Title)
	}

	// an entry keyed by its own title compares equal, so nothing is rewritten
	if !model.CompareMaps(&e, model.NewEntries(e.Bookmarks()...)) {
		t.Error("expected entries keyed by title to equal the decoded entries")
	}
}

func TestEntries_NilReceiver(t *testing.T) {
	var e *model.Entries
	if e.Delete("a.ipynb") {
		t.Error("expected Delete on nil entries to report absent")
	}
	if e.Len() != 0 || e.Has("a.ipynb") || e.Titles() != nil {
		t.Error("expected nil entries to behave as empty")
	}
}

func TestCompareMaps(t *testing.T) {
	a := model.NewEntries(
		sample("a.ipynb", "/a.ipynb", "Work"),
		sample("b.ipynb", "/b.ipynb", "Work"),
	)

	if !model.CompareMaps(a, a) {
		t.Error("CompareMaps(A, A) must be true")
	}

	reordered := model.NewEntries(
		sample("b.ipynb", "/b.ipynb", "Work"),
		sample("a.ipynb", "/a.ipynb", "Work"),
	)
	if !model.CompareMaps(a, reordered) {
		t.Error("order must not matter")
	}

	bigger := a.Clone()
	bigger.Set("c.ipynb", sample("c.ipynb", "/c.ipynb", "Work"))
	if model.CompareMaps(a, bigger) || model.CompareMaps(bigger, a) {
		t.Error("maps of different size must not compare equal")
	}

	changed := a.Clone()
	b := sample("b.ipynb", "/b.ipynb", "Work")
	b.Disabled = true
	changed.Set("b.ipynb", b)
	if model.CompareMaps(a, changed) {
		t.Error("single field mismatch must make maps unequal")
	}

	renamed := model.NewEntries(
		sample("a.ipynb", "/a.ipynb", "Work"),
		sample("z.ipynb", "/b.ipynb", "Work"),
	)
	if model.CompareMaps(a, renamed) {
		t.Error("different keys must make maps unequal")
	}

	if !model.CompareMaps(model.NewEntries(), nil) {
		t.Error("empty and nil entries should compare equal")
	}
}

func TestDisambiguateTitle(t *testing.T) {
	tests := []struct {
		title string
		n     int
		want  string
	}{
		{"a.ipynb", 1, "a_(1).ipynb"},
		{"a.tar.gz", 2, "a.tar_(2).gz"},
		{"notes", 1, "notes_(1)"},
		{".env", 3, ".env_(3)"},
		{"report.v2.ipynb", 1, "report.v2_(1).ipynb"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := model.DisambiguateTitle(tt.title, tt.n); got != tt.want {
				t.Errorf("DisambiguateTitle(%q, %d) = %q, want %q", tt.title, tt.n, got, tt.want)
			}
		})
	}
}

func TestCountCopies(t *testing.T) {
	e := model.NewEntries(
		sample("a.ipynb", "/x/a.ipynb", "Work"),
		sample("a_(1).ipynb", "/y/a.ipynb", "Work"),
		sample("b.ipynb", "/x/b.ipynb", "Work"),
	)

	incoming := sample("a.ipynb", "/z/a.ipynb", "")
	if got := model.CountCopies(e, incoming); got != 2 {
		t.Errorf("expected 2 copies, got %d", got)
	}

	windows := sample("a.ipynb", `C:\data\a.ipynb`, "")
	if got := model.CountCopies(e, windows); got != 2 {
		t.Errorf("expected backslash paths to match by file name, got %d", got)
	}
}
