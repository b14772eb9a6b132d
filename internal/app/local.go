package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/storage"
)

var (
	ErrNotFound     = errors.New("file not found")
	ErrIsDirectory  = errors.New("path is a directory")
	ErrNotTemporary = errors.New("bookmark is not opened from a temporary location")
)

// Local resolves and syncs bookmarks on the local file system when no server
// is configured.
type Local struct {
	root       string
	tempPrefix string
}

// NewLocal creates a Local rooted at root. Relative paths resolve against the
// working directory when root is empty.
func NewLocal(root, tempPrefix string) *Local {
	return &Local{root: root, tempPrefix: tempPrefix}
}

// GetAbsPath resolves b.BasePath. Paths inside the root keep a root-relative
// base path; others keep their absolute path.
func (l *Local) GetAbsPath(_ context.Context, b model.Bookmark) (model.Bookmark, error) {
	full := filepath.FromSlash(b.BasePath)
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.root, full)
	}
	full, err := filepath.Abs(full)
	if err != nil {
		return model.Bookmark{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("%w: %s", ErrNotFound, b.BasePath)
	}
	if info.IsDir() {
		return model.Bookmark{}, fmt.Errorf("%w: %s", ErrIsDirectory, b.BasePath)
	}
	if real, err := filepath.EvalSymlinks(full); err == nil {
		full = real
	}

	base := full
	if rel, ok := l.relative(full); ok {
		base = rel
	}
	title := b.Title
	if title == "" {
		title = filepath.Base(full)
	}
	return model.NewBookmark(model.NewBookmarkParams{
		Title:    title,
		BasePath: filepath.ToSlash(base),
		AbsPath:  full,
		Category: b.Category,
	}), nil
}

// SyncBookmark copies <root>/<activePath> back to the bookmark's absolute path.
func (l *Local) SyncBookmark(_ context.Context, b model.Bookmark) error {
	if !b.IsTemporary(l.tempPrefix) {
		return ErrNotTemporary
	}
	src := filepath.Join(l.root, filepath.FromSlash(b.ActivePath))
	if err := storage.CopyFile(src, b.AbsPath); err != nil {
		return fmt.Errorf("sync %s: %w", b.Title, err)
	}
	return nil
}

func (l *Local) relative(full string) (string, bool) {
	if l.root == "" {
		return "", false
	}
	root := l.root
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
