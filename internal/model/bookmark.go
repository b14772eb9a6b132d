package model

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultCategory receives bookmarks without a category and cannot be deleted.
const DefaultCategory = "Uncategorized"

// DefaultTempPrefix marks active paths that point at a temporary copy.
const DefaultTempPrefix = ".tmp"

// Bookmark represents a saved reference to a notebook file.
type Bookmark struct {
	Title      string `json:"title"`
	BasePath   string `json:"basePath"`   // path under the content root at creation time
	AbsPath    string `json:"absPath"`    // real identity of the file
	ActivePath string `json:"activePath"` // BasePath, or a temporary copy
	Disabled   bool   `json:"disabled"`   // file unreachable at last check
	Category   string `json:"category"`
}

// NewBookmarkParams holds parameters for creating a new Bookmark.
type NewBookmarkParams struct {
	Title    string
	BasePath string
	AbsPath  string
	Category string
}

// NewBookmark creates a Bookmark whose active path is its base path.
func NewBookmark(params NewBookmarkParams) Bookmark {
	return Bookmark{
		Title:      params.Title,
		BasePath:   params.BasePath,
		AbsPath:    params.AbsPath,
		ActivePath: params.BasePath,
		Category:   NormalizeCategory(params.Category),
	}
}

// Equal reports whether every field of b and other matches.
func (b Bookmark) Equal(other Bookmark) bool {
	return b == other
}

// IsTemporary reports whether the active path lives under the temp prefix.
func (b Bookmark) IsTemporary(prefix string) bool {
	if prefix == "" {
		prefix = DefaultTempPrefix
	}
	return strings.HasPrefix(filepath.ToSlash(b.ActivePath), prefix)
}

// OpenPath returns the path the host should open.
func (b Bookmark) OpenPath() string {
	if b.ActivePath == "" || b.ActivePath == b.BasePath {
		return b.BasePath
	}
	return b.ActivePath
}

// FileName returns the final segment of the absolute path.
func (b Bookmark) FileName() string {
	return fileName(b.AbsPath)
}

// NormalizeCategory maps the empty category to DefaultCategory.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

func fileName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
