package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/nbm/internal/model"
)

// SettingsKey is the single key the settings store holds.
const SettingsKey = "bookmarks"

// Settings defines the interface for persisting the bookmark setting.
type Settings interface {
	Load() (*model.Entries, error)
	Save(entries *model.Entries) error
}

// settingsFile is the on-disk layout of the JSON settings file.
type settingsFile struct {
	Bookmarks *model.Entries `json:"bookmarks"`
}

// JSONStorage implements Settings using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the bookmark setting from the JSON file.
// Returns empty entries if the file doesn't exist.
func (s *JSONStorage) Load() (*model.Entries, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewEntries(), nil
		}
		return nil, err
	}
	return DecodeSettings(data)
}

// Save writes the bookmark setting to the JSON file.
// The file is replaced atomically so watchers never observe a partial write.
func (s *JSONStorage) Save(entries *model.Entries) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := EncodeSettings(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// EncodeSettings renders entries in the settings layout.
func EncodeSettings(entries *model.Entries) ([]byte, error) {
	if entries == nil {
		entries = model.NewEntries()
	}
	return json.MarshalIndent(settingsFile{Bookmarks: entries}, "", "  ")
}

// DecodeSettings parses the settings layout. A missing bookmarks key yields
// empty entries.
func DecodeSettings(data []byte) (*model.Entries, error) {
	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if f.Bookmarks == nil {
		return model.NewEntries(), nil
	}
	return f.Bookmarks, nil
}

// DefaultSettingsPath returns the default settings path: ~/.config/nbm/settings.json
func DefaultSettingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "nbm", "settings.json"), nil
}

// OpenSettings opens the settings backend selected by cfg.
func OpenSettings(cfg *Config) (Settings, error) {
	switch cfg.Backend {
	case "", BackendJSON:
		return NewJSONStorage(cfg.SettingsPath), nil
	case BackendSQLite:
		return NewSQLiteStorage(cfg.SettingsPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
