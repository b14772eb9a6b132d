package availability_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/nikbrunner/nbm/internal/availability"
	"github.com/nikbrunner/nbm/internal/model"
)

func TestCheckPaths(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.ipynb")
	if err := os.WriteFile(present, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	bookmarks := []model.Bookmark{
		{Title: "present", AbsPath: present},
		{Title: "missing", AbsPath: filepath.Join(dir, "missing.ipynb")},
		{Title: "dir", AbsPath: dir},
		{Title: "empty"},
	}

	var calls atomic.Int32
	results := availability.CheckPaths(bookmarks, 2, nil, func(completed, total int) {
		calls.Add(1)
		if total != len(bookmarks) {
			t.Errorf("expected total %d, got %d", len(bookmarks), total)
		}
	})

	want := []availability.Status{
		availability.Available,
		availability.Missing,
		availability.Unreadable,
		availability.Missing,
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, r := range results {
		if r.Bookmark.Title != bookmarks[i].Title {
			t.Errorf("result %d out of order: %s", i, r.Bookmark.Title)
		}
		if r.Status != want[i] {
			t.Errorf("%s: expected %s, got %s (%s)", r.Bookmark.Title, want[i], r.Status, r.Error)
		}
	}
	if calls.Load() != int32(len(bookmarks)) {
		t.Errorf("expected %d progress calls, got %d", len(bookmarks), calls.Load())
	}
}

func TestCheckPaths_CustomResolver(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.ipynb"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	results := availability.CheckPaths(
		[]model.Bookmark{{Title: "a", BasePath: "a.ipynb"}},
		0,
		func(b model.Bookmark) string { return filepath.Join(root, b.BasePath) },
		nil,
	)
	if results[0].Status != availability.Available {
		t.Errorf("expected available, got %s", results[0].Status)
	}
}

func TestCheckPaths_Empty(t *testing.T) {
	if got := availability.CheckPaths(nil, 4, nil, nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
