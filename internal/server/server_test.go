package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/remote"
	"github.com/nikbrunner/nbm/internal/server"
	"github.com/nikbrunner/nbm/internal/storage"
)

type env struct {
	root    string
	outside string
	client  *remote.Client
}

func setup(t *testing.T, token string) env {
	t.Helper()
	root := t.TempDir()
	outside := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "server.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { store.Close() })

	srv, err := server.New(server.Params{
		Root:   root,
		Store:  store,
		Token:  token,
		Logger: zerolog.Nop(),
	})
	assert.NilError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := remote.NewClient(remote.Params{BaseURL: ts.URL, Token: token, Logger: zerolog.Nop()})
	assert.NilError(t, err)

	root, _ = filepath.EvalSymlinks(root)
	outside, _ = filepath.EvalSymlinks(outside)
	return env{root: root, outside: outside, client: client}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGetAbsPath(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	writeFile(t, filepath.Join(e.root, "work", "a.ipynb"), "{}")

	b, err := e.client.GetAbsPath(ctx, model.Bookmark{Title: "a.ipynb", BasePath: "work/a.ipynb"})
	assert.NilError(t, err)
	assert.Equal(t, b.AbsPath, filepath.Join(e.root, "work", "a.ipynb"))
	assert.Equal(t, b.ActivePath, "work/a.ipynb")
	assert.Equal(t, b.Category, model.DefaultCategory)

	_, err = e.client.GetAbsPath(ctx, model.Bookmark{BasePath: "work/missing.ipynb"})
	assert.Assert(t, errors.Is(err, remote.ErrRejected))

	_, err = e.client.GetAbsPath(ctx, model.Bookmark{BasePath: "../etc/passwd"})
	assert.Assert(t, errors.Is(err, remote.ErrRejected))
}

func TestUpdateBookmarks(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	writeFile(t, filepath.Join(e.root, "in.ipynb"), "inside")
	writeFile(t, filepath.Join(e.outside, "out.ipynb"), "outside")

	entries := model.NewEntries(
		model.Bookmark{Title: "in.ipynb", BasePath: "in.ipynb", AbsPath: filepath.Join(e.root, "in.ipynb"), ActivePath: "in.ipynb"},
		model.Bookmark{Title: "out.ipynb", BasePath: "out.ipynb", AbsPath: filepath.Join(e.outside, "out.ipynb"), ActivePath: "out.ipynb"},
		model.Bookmark{Title: "gone.ipynb", BasePath: "gone.ipynb", AbsPath: filepath.Join(e.root, "gone.ipynb"), ActivePath: "gone.ipynb"},
	)
	assert.NilError(t, e.client.PushSettings(ctx, entries))

	updated, err := e.client.UpdateBookmarks(ctx, entries)
	assert.NilError(t, err)
	assert.DeepEqual(t, updated.Titles(), entries.Titles())

	in, _ := updated.Get("in.ipynb")
	assert.Assert(t, !in.Disabled)
	assert.Equal(t, in.ActivePath, "in.ipynb")

	out, _ := updated.Get("out.ipynb")
	assert.Assert(t, !out.Disabled)
	assert.Assert(t, out.IsTemporary(model.DefaultTempPrefix), out.ActivePath)
	data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(out.ActivePath)))
	assert.NilError(t, err)
	assert.Equal(t, string(data), "outside")

	gone, _ := updated.Get("gone.ipynb")
	assert.Assert(t, gone.Disabled)
}

func TestUpdateBookmarks_UnstoredOutsideFileGetsNoCopy(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	writeFile(t, filepath.Join(e.outside, "secret.ipynb"), "secret")

	updated, err := e.client.UpdateBookmarks(ctx, model.NewEntries(
		model.Bookmark{Title: "secret.ipynb", BasePath: "secret.ipynb", AbsPath: filepath.Join(e.outside, "secret.ipynb"), ActivePath: "secret.ipynb"},
	))
	assert.NilError(t, err)

	b, _ := updated.Get("secret.ipynb")
	assert.Assert(t, b.Disabled)
	assert.Equal(t, b.ActivePath, "secret.ipynb")
	_, err = os.Stat(filepath.Join(e.root, model.DefaultTempPrefix))
	assert.Assert(t, errors.Is(err, os.ErrNotExist))
}

func TestUpdateBookmarks_SimilarTitlesGetSeparateCopies(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	writeFile(t, filepath.Join(e.outside, "one", "b.ipynb"), "one")
	writeFile(t, filepath.Join(e.outside, "two", "b.ipynb"), "two")

	entries := model.NewEntries(
		model.Bookmark{Title: "a/b.ipynb", BasePath: "b.ipynb", AbsPath: filepath.Join(e.outside, "one", "b.ipynb")},
		model.Bookmark{Title: "a_b.ipynb", BasePath: "b.ipynb", AbsPath: filepath.Join(e.outside, "two", "b.ipynb")},
	)
	assert.NilError(t, e.client.PushSettings(ctx, entries))

	updated, err := e.client.UpdateBookmarks(ctx, entries)
	assert.NilError(t, err)

	slash, _ := updated.Get("a/b.ipynb")
	underscore, _ := updated.Get("a_b.ipynb")
	assert.Assert(t, slash.ActivePath != underscore.ActivePath)
	for want, b := range map[string]model.Bookmark{"one": slash, "two": underscore} {
		data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(b.ActivePath)))
		assert.NilError(t, err)
		assert.Equal(t, string(data), want)
	}
}

func TestSyncBookmark(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	abs := filepath.Join(e.outside, "out.ipynb")
	writeFile(t, abs, "v1")

	entries := model.NewEntries(
		model.Bookmark{Title: "out.ipynb", BasePath: "out.ipynb", AbsPath: abs, ActivePath: "out.ipynb"},
	)
	assert.NilError(t, e.client.PushSettings(ctx, entries))
	updated, err := e.client.UpdateBookmarks(ctx, entries)
	assert.NilError(t, err)
	assert.NilError(t, e.client.PushSettings(ctx, updated))
	b, _ := updated.Get("out.ipynb")

	writeFile(t, filepath.Join(e.root, filepath.FromSlash(b.ActivePath)), "v2")
	assert.NilError(t, e.client.SyncBookmark(ctx, b))

	data, err := os.ReadFile(abs)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "v2")

	b.ActivePath = "out.ipynb"
	err = e.client.SyncBookmark(ctx, b)
	assert.Assert(t, errors.Is(err, remote.ErrRejected))
}

func TestSyncBookmark_RejectsUnstoredTarget(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()
	victim := filepath.Join(e.outside, "victim.txt")
	writeFile(t, victim, "original")
	writeFile(t, filepath.Join(e.root, ".tmp", "x"), "overwritten")

	err := e.client.SyncBookmark(ctx, model.Bookmark{Title: "x", AbsPath: victim, ActivePath: ".tmp/x"})
	assert.Assert(t, errors.Is(err, remote.ErrRejected))

	// a stored title with a different target is rejected too
	assert.NilError(t, e.client.PushSettings(ctx, model.NewEntries(
		model.Bookmark{Title: "x", BasePath: "x", AbsPath: filepath.Join(e.outside, "x.ipynb"), ActivePath: ".tmp/x"},
	)))
	err = e.client.SyncBookmark(ctx, model.Bookmark{Title: "x", AbsPath: victim, ActivePath: ".tmp/x"})
	assert.Assert(t, errors.Is(err, remote.ErrRejected))

	data, err := os.ReadFile(victim)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "original")
}

func TestSettingsImportExport(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()

	empty, err := e.client.FetchSettings(ctx)
	assert.NilError(t, err)
	assert.Equal(t, empty.Len(), 0)

	entries := model.NewEntries(
		model.NewBookmark(model.NewBookmarkParams{Title: "a.ipynb", BasePath: "a.ipynb", AbsPath: "/a.ipynb", Category: "Work"}),
	)
	assert.NilError(t, e.client.PushSettings(ctx, entries))

	fetched, err := e.client.FetchSettings(ctx)
	assert.NilError(t, err)
	assert.Assert(t, model.CompareMaps(entries, fetched))

	imported := model.NewEntries(model.Bookmark{Title: "b.ipynb", BasePath: "b.ipynb", AbsPath: "/b.ipynb", ActivePath: "b.ipynb"})
	result, err := e.client.Import(ctx, model.Document{Bookmarks: imported})
	assert.NilError(t, err)
	b, _ := result.Get("b.ipynb")
	assert.Equal(t, b.Category, model.DefaultCategory)

	doc, err := e.client.Export(ctx)
	assert.NilError(t, err)
	assert.Equal(t, doc.Version, model.CurrentDocumentVersion)
	assert.DeepEqual(t, doc.Bookmarks.Titles(), []string{"b.ipynb"})
}

func TestTokenRequired(t *testing.T) {
	e := setup(t, "secret")
	ctx := context.Background()

	_, err := e.client.FetchSettings(ctx)
	assert.NilError(t, err)

	// unauthenticated request
	root := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "s.db"))
	assert.NilError(t, err)
	defer store.Close()
	srv, err := server.New(server.Params{Root: root, Store: store, Token: "secret", Logger: zerolog.Nop()})
	assert.NilError(t, err)

	req := httptest.NewRequest(http.MethodGet, remote.BasePath+remote.EndpointSettings, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, rec.Code, http.StatusUnauthorized)
}

func TestNew_RequiresDirectoryRoot(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "s.db"))
	assert.NilError(t, err)
	defer store.Close()

	_, err = server.New(server.Params{Root: filepath.Join(t.TempDir(), "missing"), Store: store})
	assert.ErrorContains(t, err, "not a directory")
}
