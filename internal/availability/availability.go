// Package availability checks whether bookmarked notebook files can still be
// opened.
package availability

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/nikbrunner/nbm/internal/model"
)

// Status represents whether a bookmarked file is reachable.
type Status int

const (
	Available  Status = iota // regular file, readable
	Missing                  // path does not exist
	Unreadable               // exists but cannot be opened, or is a directory
)

func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case Missing:
		return "missing"
	case Unreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Result holds the check result for a single bookmark.
type Result struct {
	Bookmark model.Bookmark
	Path     string
	Status   Status
	Error    string // reason for Missing or Unreadable
}

// ProgressFunc is called after each path is checked.
type ProgressFunc func(completed, total int)

// ResolveFunc maps a bookmark to the filesystem path to check.
type ResolveFunc func(b model.Bookmark) string

// AbsPath resolves a bookmark to its absolute path.
func AbsPath(b model.Bookmark) string { return b.AbsPath }

// CheckPaths checks every bookmark concurrently. Results keep input order.
func CheckPaths(bookmarks []model.Bookmark, concurrency int, resolve ResolveFunc, onProgress ProgressFunc) []Result {
	if len(bookmarks) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if resolve == nil {
		resolve = AbsPath
	}

	results := make([]Result, len(bookmarks))
	jobs := make(chan int, len(bookmarks))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = checkPath(bookmarks[idx], resolve(bookmarks[idx]))

				if onProgress != nil {
					progressMu.Lock()
					completed++
					onProgress(completed, len(bookmarks))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range bookmarks {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func checkPath(b model.Bookmark, path string) Result {
	result := Result{Bookmark: b, Path: path}
	if path == "" {
		result.Status = Missing
		result.Error = "No path"
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Status = Missing
			result.Error = "Not found"
			return result
		}
		result.Status = Unreadable
		result.Error = normalizeError(err.Error())
		return result
	}
	if info.IsDir() {
		result.Status = Unreadable
		result.Error = "Is a directory"
		return result
	}

	f, err := os.Open(path)
	if err != nil {
		result.Status = Unreadable
		result.Error = normalizeError(err.Error())
		return result
	}
	f.Close()

	result.Status = Available
	return result
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "permission denied"):
		return "Permission denied"
	case strings.Contains(lower, "not a directory"):
		return "Parent is not a directory"
	case strings.Contains(lower, "too many levels of symbolic links"):
		return "Symlink loop"
	default:
		return errStr
	}
}
