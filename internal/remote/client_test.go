package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/remote"
	"github.com/nikbrunner/nbm/internal/storage"
)

func newClient(t *testing.T, handler http.HandlerFunc) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := remote.NewClient(remote.Params{BaseURL: srv.URL + "/", Token: "tok", Logger: zerolog.Nop()})
	assert.NilError(t, err)
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := remote.NewClient(remote.Params{})
	assert.Assert(t, errors.Is(err, remote.ErrNoServer))
}

func TestClient_GetAbsPath(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPost)
		assert.Equal(t, r.URL.Path, "/notebook-bookmarks/getAbsPath")
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer tok")
		assert.Assert(t, r.Header.Get(remote.RequestIDHeader) != "")

		var in model.Bookmark
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&in))
		in.AbsPath = "/srv/" + in.BasePath
		in.ActivePath = in.BasePath
		_ = json.NewEncoder(w).Encode(remote.AbsPathResponse{
			Envelope:     remote.Envelope{Success: true},
			BookmarkItem: &in,
		})
	})

	b, err := c.GetAbsPath(context.Background(), model.Bookmark{Title: "a.ipynb", BasePath: "x/a.ipynb"})
	assert.NilError(t, err)
	assert.Equal(t, b.AbsPath, "/srv/x/a.ipynb")
	assert.Equal(t, b.ActivePath, "x/a.ipynb")
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(remote.Envelope{Error: true, Reason: "file not found"})
	})

	_, err := c.GetAbsPath(context.Background(), model.Bookmark{BasePath: "missing.ipynb"})
	assert.Assert(t, errors.Is(err, remote.ErrRejected))
	assert.ErrorContains(t, err, "file not found")
}

func TestClient_StatusWithoutEnvelope(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := c.SyncBookmark(context.Background(), model.Bookmark{})
	assert.Assert(t, errors.Is(err, remote.ErrRequest))
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.UpdateBookmarks(context.Background(), model.NewEntries())
	assert.Assert(t, errors.Is(err, remote.ErrInvalidResponse))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := remote.NewClient(remote.Params{BaseURL: url, Logger: zerolog.Nop()})
	assert.NilError(t, err)
	_, err = c.FetchSettings(context.Background())
	assert.Assert(t, errors.Is(err, remote.ErrRequest))
}

func TestClient_SettingsRoundTrip(t *testing.T) {
	var stored string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/notebook-bookmarks/settings")
		switch r.Method {
		case http.MethodPost:
			var in remote.SettingsRequest
			assert.NilError(t, json.NewDecoder(r.Body).Decode(&in))
			stored = in.Settings
			_ = json.NewEncoder(w).Encode(remote.Envelope{Success: true})
		default:
			_ = json.NewEncoder(w).Encode(remote.SettingsResponse{Result: true, Settings: stored})
		}
	})
	ctx := context.Background()

	empty, err := c.FetchSettings(ctx)
	assert.NilError(t, err)
	assert.Equal(t, empty.Len(), 0)

	entries := model.NewEntries(model.NewBookmark(model.NewBookmarkParams{
		Title: "a.ipynb", BasePath: "a.ipynb", AbsPath: "/a.ipynb",
	}))
	assert.NilError(t, c.PushSettings(ctx, entries))

	decoded, err := storage.DecodeSettings([]byte(stored))
	assert.NilError(t, err)
	assert.Assert(t, model.CompareMaps(entries, decoded))

	fetched, err := c.FetchSettings(ctx)
	assert.NilError(t, err)
	assert.Assert(t, model.CompareMaps(entries, fetched))
}

func TestClient_SettingsNotAvailable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remote.SettingsResponse{Result: false})
	})
	_, err := c.FetchSettings(context.Background())
	assert.Assert(t, errors.Is(err, remote.ErrRejected))
}
