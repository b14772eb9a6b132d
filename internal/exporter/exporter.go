// Package exporter writes bookmarks as JSON documents, Netscape HTML or YAML.
package exporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/nbm/internal/model"
)

// Format names an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a name or file extension onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/notebook-bookmarks-YYYY-MM-DD.<ext>
func DefaultExportPath(format Format) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("notebook-bookmarks-%s.%s", time.Now().Format("2006-01-02"), format)
	return filepath.Join(home, "Downloads", filename), nil
}

// Write renders entries in format to w.
func Write(w io.Writer, format Format, entries *model.Entries) error {
	switch format {
	case FormatJSON:
		data, err := ExportJSON(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatHTML:
		_, err := io.WriteString(w, ExportHTML(entries))
		return err
	case FormatYAML:
		data, err := ExportYAML(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile renders entries to path, creating parent directories.
func WriteFile(path string, format Format, entries *model.Entries) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportJSON renders entries as a versioned document.
func ExportJSON(entries *model.Entries) ([]byte, error) {
	if entries == nil {
		entries = model.NewEntries()
	}
	data, err := json.MarshalIndent(model.Document{
		Version:   model.CurrentDocumentVersion,
		Bookmarks: entries,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

type yamlDocument struct {
	Version    int            `yaml:"version"`
	Categories []yamlCategory `yaml:"categories"`
}

type yamlCategory struct {
	Name      string         `yaml:"name"`
	Bookmarks []yamlBookmark `yaml:"bookmarks"`
}

type yamlBookmark struct {
	Title      string `yaml:"title"`
	BasePath   string `yaml:"base_path"`
	AbsPath    string `yaml:"abs_path"`
	ActivePath string `yaml:"active_path,omitempty"`
	Disabled   bool   `yaml:"disabled,omitempty"`
}

// ExportYAML renders entries grouped by category. The output is meant for
// reading; imports use JSON or HTML.
func ExportYAML(entries *model.Entries) ([]byte, error) {
	doc := yamlDocument{Version: model.CurrentDocumentVersion, Categories: []yamlCategory{}}
	for _, group := range groupByCategory(entries) {
		c := yamlCategory{Name: group.name}
		for _, bm := range group.bookmarks {
			yb := yamlBookmark{
				Title:    bm.Title,
				BasePath: bm.BasePath,
				AbsPath:  bm.AbsPath,
				Disabled: bm.Disabled,
			}
			if bm.ActivePath != bm.BasePath {
				yb.ActivePath = bm.ActivePath
			}
			c.Bookmarks = append(c.Bookmarks, yb)
		}
		doc.Categories = append(doc.Categories, c)
	}
	return yaml.Marshal(doc)
}
