package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/storage"
)

func sampleEntries() *model.Entries {
	return model.NewEntries(
		model.NewBookmark(model.NewBookmarkParams{
			Title:    "analysis.ipynb",
			BasePath: "work/analysis.ipynb",
			AbsPath:  "/home/u/work/analysis.ipynb",
			Category: "Work",
		}),
		model.NewBookmark(model.NewBookmarkParams{
			Title:    "scratch.ipynb",
			BasePath: "scratch.ipynb",
			AbsPath:  "/home/u/scratch.ipynb",
		}),
	)
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "nested", "settings.json")

	s := storage.NewJSONStorage(settingsPath)
	if err := s.Save(sampleEntries()); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		t.Fatal("settings file was not created")
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if !model.CompareMaps(sampleEntries(), loaded) {
		t.Errorf("loaded entries differ from saved entries: %v", loaded.Titles())
	}
	if loaded.Titles()[0] != "analysis.ipynb" {
		t.Errorf("expected insertion order to survive, got %v", loaded.Titles())
	}
}

func TestJSONStorage_FileLayout(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	s := storage.NewJSONStorage(settingsPath)
	if err := s.Save(sampleEntries()); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"bookmarks": [`) {
		t.Errorf("expected bookmarks array in settings file, got:\n%s", content)
	}
	if !strings.Contains(content, `"activePath": "work/analysis.ipynb"`) {
		t.Errorf("expected record fields in settings file, got:\n%s", content)
	}

	entries, err := os.ReadDir(filepath.Dir(settingsPath))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestJSONStorage_LoadNonexistent(t *testing.T) {
	s := storage.NewJSONStorage(filepath.Join(t.TempDir(), "nonexistent.json"))
	entries, err := s.Load()
	if err != nil {
		t.Fatalf("expected no error for nonexistent file, got: %v", err)
	}
	if entries.Len() != 0 {
		t.Errorf("expected empty entries, got %d", entries.Len())
	}
}

func TestJSONStorage_LoadMissingKey(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(settingsPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := storage.NewJSONStorage(settingsPath).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries.Len() != 0 {
		t.Errorf("expected empty entries, got %d", entries.Len())
	}
}

func TestJSONStorage_LoadInvalid(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(settingsPath, []byte(`{"bookmarks": [["only-title"]]}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.NewJSONStorage(settingsPath).Load(); err == nil {
		t.Error("expected error for malformed pair")
	}
}

func TestOpenSettings(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"default is json", "", false},
		{"json", storage.BackendJSON, false},
		{"sqlite", storage.BackendSQLite, false},
		{"unknown", "redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &storage.Config{
				Backend:      tt.backend,
				SettingsPath: filepath.Join(tmpDir, tt.name+".store"),
			}
			s, err := storage.OpenSettings(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if closer, ok := s.(interface{ Close() error }); ok {
				defer closer.Close()
			}

			if err := s.Save(sampleEntries()); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
			loaded, err := s.Load()
			if err != nil {
				t.Fatalf("failed to load: %v", err)
			}
			if loaded.Len() != 2 {
				t.Errorf("expected 2 entries, got %d", loaded.Len())
			}
		})
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ipynb")
	dst := filepath.Join(dir, "nested", "dst.ipynb")

	if err := os.WriteFile(src, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if err := os.WriteFile(src, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("second copy failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Errorf("expected v2, got %q", data)
	}

	if err := storage.CopyFile(filepath.Join(dir, "missing"), dst); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
