// Package server implements the server-side bookmark store: path resolution,
// availability refresh, temporary copies and settings persistence over a
// content root.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/nbm/internal/availability"
	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/remote"
	"github.com/nikbrunner/nbm/internal/storage"
)

var (
	errUnauthorized = errors.New("unauthorized")
	errOutsideRoot  = errors.New("path escapes the content root")
	errNotTemporary = errors.New("bookmark is not opened from a temporary location")
	errNotStored    = errors.New("bookmark is not stored on the server")
)

// RawStore is a key-value store holding raw setting values.
type RawStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Params configures a Server.
type Params struct {
	Root        string
	TempPrefix  string
	Store       RawStore
	Token       string
	Concurrency int
	Logger      zerolog.Logger
}

// Server serves the bookmark endpoints.
type Server struct {
	root        string
	tempPrefix  string
	store       RawStore
	token       string
	concurrency int
	logger      zerolog.Logger
}

// New creates a Server rooted at params.Root.
func New(params Params) (*Server, error) {
	if params.Store == nil {
		return nil, errors.New("server: store is required")
	}
	root, err := filepath.Abs(params.Root)
	if err != nil {
		return nil, fmt.Errorf("server: resolve root: %w", err)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("server: content root %s is not a directory", root)
	}
	if params.TempPrefix == "" {
		params.TempPrefix = model.DefaultTempPrefix
	}
	if params.Concurrency < 1 {
		params.Concurrency = 8
	}
	return &Server{
		root:        root,
		tempPrefix:  params.TempPrefix,
		store:       params.Store,
		token:       params.Token,
		concurrency: params.Concurrency,
		logger:      params.Logger.With().Str("component", "server").Logger(),
	}, nil
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(method, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+remote.BasePath+endpoint, s.withAuth(h))
	}
	route(http.MethodPost, remote.EndpointGetAbsPath, s.handleGetAbsPath)
	route(http.MethodPost, remote.EndpointSyncBookmark, s.handleSyncBookmark)
	route(http.MethodPost, remote.EndpointUpdateBookmarks, s.handleUpdateBookmarks)
	route(http.MethodGet, remote.EndpointSettings, s.handleGetSettings)
	route(http.MethodPost, remote.EndpointSettings, s.handlePostSettings)
	route(http.MethodPost, remote.EndpointImport, s.handleImport)
	route(http.MethodGet, remote.EndpointExport, s.handleExport)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("root", s.root).Msg("serving bookmarks")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token != s.token {
				s.writeError(w, r, http.StatusUnauthorized, errUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleGetAbsPath(w http.ResponseWriter, r *http.Request) {
	var in model.Bookmark
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	full, err := s.inRoot(in.BasePath)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	info, err := os.Stat(full)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("file %s not found", in.BasePath))
		return
	}
	if info.IsDir() {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%s is a directory", in.BasePath))
		return
	}
	if real, err := filepath.EvalSymlinks(full); err == nil {
		full = real
	}

	title := in.Title
	if title == "" {
		title = filepath.Base(full)
	}
	b := model.NewBookmark(model.NewBookmarkParams{
		Title:    title,
		BasePath: filepath.ToSlash(in.BasePath),
		AbsPath:  full,
		Category: in.Category,
	})
	s.writeJSON(w, http.StatusOK, remote.AbsPathResponse{
		Envelope:     remote.Envelope{Success: true},
		BookmarkItem: &b,
	})
}

func (s *Server) handleSyncBookmark(w http.ResponseWriter, r *http.Request) {
	var b model.Bookmark
	if err := decodeJSON(r, &b); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if !b.IsTemporary(s.tempPrefix) {
		s.writeError(w, r, http.StatusBadRequest, errNotTemporary)
		return
	}
	src, err := s.inRoot(b.ActivePath)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	stored, err := s.load()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	known, ok := stored.Get(b.Title)
	if !ok || known.AbsPath != b.AbsPath || known.ActivePath != b.ActivePath {
		s.writeError(w, r, http.StatusForbidden, fmt.Errorf("%w: %s", errNotStored, b.Title))
		return
	}
	if err := storage.CopyFile(src, known.AbsPath); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("sync %s: %w", b.Title, err))
		return
	}
	s.logger.Info().Str("title", b.Title).Str("path", b.AbsPath).Msg("bookmark synced")
	s.writeJSON(w, http.StatusOK, remote.Envelope{Success: true})
}

func (s *Server) handleUpdateBookmarks(w http.ResponseWriter, r *http.Request) {
	var in remote.UpdateRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	stored, err := s.load()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	updated := s.refresh(in.BookmarksData, stored)
	s.writeJSON(w, http.StatusOK, remote.BookmarksResponse{
		Envelope:  remote.Envelope{Success: true},
		Bookmarks: updated,
	})
}

// refresh marks unreachable bookmarks disabled and gives files outside the
// content root a temporary copy inside it. Only bookmarks stored with the
// same absolute path get a copy; other outside files are disabled.
func (s *Server) refresh(entries, stored *model.Entries) *model.Entries {
	results := availability.CheckPaths(entries.Bookmarks(), s.concurrency, nil, nil)
	out := model.NewEntries()
	for _, res := range results {
		b := res.Bookmark
		b.Disabled = res.Status != availability.Available
		if !b.Disabled {
			b.ActivePath = b.BasePath
			if !s.contains(b.AbsPath) {
				if known, ok := stored.Get(b.Title); !ok || known.AbsPath != b.AbsPath {
					s.logger.Warn().Str("title", b.Title).Msg("refusing temporary copy of a bookmark the server does not store")
					b.Disabled = true
					out.Set(b.Title, b)
					continue
				}
				rel, err := s.tempCopy(b)
				if err != nil {
					s.logger.Warn().Err(err).Str("title", b.Title).Msg("failed to create temporary copy")
					b.Disabled = true
				} else {
					b.ActivePath = rel
				}
			}
		}
		out.Set(b.Title, b)
	}
	return out
}

// tempCopy copies b into the temp directory. The file name carries a hash of
// the absolute path, so titles that sanitize alike never share a copy.
func (s *Server) tempCopy(b model.Bookmark) (string, error) {
	title := strings.NewReplacer("/", "_", "\\", "_").Replace(b.Title)
	ext := filepath.Ext(title)
	name := fmt.Sprintf("%s-%08x%s", strings.TrimSuffix(title, ext), uint32(xxhash.Sum64String(b.AbsPath)), ext)
	rel := filepath.ToSlash(filepath.Join(s.tempPrefix, name))
	if err := storage.CopyFile(b.AbsPath, filepath.Join(s.root, filepath.FromSlash(rel))); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	value, _, err := s.store.Get(storage.SettingsKey)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, remote.SettingsResponse{
		Envelope: remote.Envelope{Success: true},
		Result:   true,
		Settings: value,
	})
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var in remote.SettingsRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	entries, err := storage.DecodeSettings([]byte(in.Settings))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.save(entries); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, remote.Envelope{Success: true})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc model.Document
	if err := decodeJSON(r, &doc); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if doc.Bookmarks == nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("document has no bookmarks"))
		return
	}
	entries := model.NewEntries()
	for _, b := range doc.Bookmarks.Bookmarks() {
		b.Category = model.NormalizeCategory(b.Category)
		entries.Set(b.Title, b)
	}
	if err := s.save(entries); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info().Int("count", entries.Len()).Msg("bookmarks imported")
	s.writeJSON(w, http.StatusOK, remote.BookmarksResponse{
		Envelope:  remote.Envelope{Success: true},
		Bookmarks: entries,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.load()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.json"`)
	s.writeJSON(w, http.StatusOK, model.Document{
		Version:   model.CurrentDocumentVersion,
		Bookmarks: entries,
	})
}

func (s *Server) load() (*model.Entries, error) {
	value, ok, err := s.store.Get(storage.SettingsKey)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return model.NewEntries(), nil
	}
	return storage.DecodeSettings([]byte(value))
}

func (s *Server) save(entries *model.Entries) error {
	data, err := storage.EncodeSettings(entries)
	if err != nil {
		return err
	}
	return s.store.Set(storage.SettingsKey, string(data))
}

// inRoot joins rel onto the content root and rejects escapes.
func (s *Server) inRoot(rel string) (string, error) {
	if rel == "" {
		return "", errors.New("empty path")
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if !s.contains(full) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, rel)
	}
	return full, nil
}

func (s *Server) contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn().
		Err(err).
		Str("request_id", r.Header.Get(remote.RequestIDHeader)).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")
	s.writeJSON(w, status, remote.Envelope{Error: true, Reason: err.Error()})
}
