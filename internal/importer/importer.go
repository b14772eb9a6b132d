// Package importer reads bookmark documents from JSON or Netscape HTML files.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/nbm/internal/model"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrEmptyDocument      = errors.New("document has no bookmarks")
)

// ReadFile reads a document from path. Files ending in .html or .htm are
// parsed as Netscape bookmark HTML, everything else as JSON.
func ReadFile(path string) (*model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		entries, err := ParseHTML(f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &model.Document{Version: model.CurrentDocumentVersion, Bookmarks: entries}, nil
	default:
		doc, err := ReadJSON(f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return doc, nil
	}
}

// ReadJSON decodes a JSON document. Documents without a version are treated
// as the current version. Categories are normalized.
func ReadJSON(r io.Reader) (*model.Document, error) {
	var doc model.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Version > model.CurrentDocumentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Bookmarks == nil {
		return nil, ErrEmptyDocument
	}
	if doc.Version == 0 {
		doc.Version = model.CurrentDocumentVersion
	}

	entries := model.NewEntries()
	for _, title := range doc.Bookmarks.Titles() {
		b, _ := doc.Bookmarks.Get(title)
		b.Title = title
		b.Category = model.NormalizeCategory(b.Category)
		if b.ActivePath == "" {
			b.ActivePath = b.BasePath
		}
		entries.Set(title, b)
	}
	doc.Bookmarks = entries
	return &doc, nil
}
