// Package remote talks to the server-side bookmark store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/storage"
)

var (
	ErrNoServer        = errors.New("no server url configured")
	ErrRequest         = errors.New("server request failed")
	ErrRejected        = errors.New("server rejected request")
	ErrInvalidResponse = errors.New("invalid server response")
)

// Params holds the configuration of a Client.
type Params struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client handles communication with the bookmark server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new server client.
// Returns ErrNoServer if BaseURL is empty.
func NewClient(params Params) (*Client, error) {
	if params.BaseURL == "" {
		return nil, ErrNoServer
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		token:      params.Token,
		httpClient: httpClient,
		logger:     params.Logger.With().Str("component", "remote").Logger(),
	}, nil
}

// GetAbsPath asks the server to resolve b.BasePath and returns the complete
// bookmark it constructs.
func (c *Client) GetAbsPath(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	var resp AbsPathResponse
	if err := c.do(ctx, http.MethodPost, EndpointGetAbsPath, b, &resp); err != nil {
		return model.Bookmark{}, err
	}
	if resp.BookmarkItem == nil {
		return model.Bookmark{}, fmt.Errorf("%w: missing bookmarkItem", ErrInvalidResponse)
	}
	return *resp.BookmarkItem, nil
}

// SyncBookmark copies the temporary content of b back to its absolute path.
func (c *Client) SyncBookmark(ctx context.Context, b model.Bookmark) error {
	var resp Envelope
	return c.do(ctx, http.MethodPost, EndpointSyncBookmark, b, &resp)
}

// UpdateBookmarks lets the server refresh disabled flags and temporary copies.
func (c *Client) UpdateBookmarks(ctx context.Context, entries *model.Entries) (*model.Entries, error) {
	var resp BookmarksResponse
	if err := c.do(ctx, http.MethodPost, EndpointUpdateBookmarks, UpdateRequest{BookmarksData: entries}, &resp); err != nil {
		return nil, err
	}
	if resp.Bookmarks == nil {
		return model.NewEntries(), nil
	}
	return resp.Bookmarks, nil
}

// FetchSettings returns the bookmarks the server has persisted.
func (c *Client) FetchSettings(ctx context.Context) (*model.Entries, error) {
	var resp SettingsResponse
	if err := c.do(ctx, http.MethodGet, EndpointSettings, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, fmt.Errorf("%w: settings unavailable", ErrRejected)
	}
	if strings.TrimSpace(resp.Settings) == "" {
		return model.NewEntries(), nil
	}
	entries, err := storage.DecodeSettings([]byte(resp.Settings))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return entries, nil
}

// PushSettings replaces the server's persisted bookmarks.
func (c *Client) PushSettings(ctx context.Context, entries *model.Entries) error {
	data, err := storage.EncodeSettings(entries)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	var resp Envelope
	return c.do(ctx, http.MethodPost, EndpointSettings, SettingsRequest{Settings: string(data)}, &resp)
}

// Import replaces the server's bookmarks with doc and returns the result.
func (c *Client) Import(ctx context.Context, doc model.Document) (*model.Entries, error) {
	var resp BookmarksResponse
	if err := c.do(ctx, http.MethodPost, EndpointImport, doc, &resp); err != nil {
		return nil, err
	}
	if resp.Bookmarks == nil {
		return model.NewEntries(), nil
	}
	return resp.Bookmarks, nil
}

// Export downloads the server's bookmarks as a document.
func (c *Client) Export(ctx context.Context) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodGet, EndpointExport, nil, &doc); err != nil {
		return nil, err
	}
	if doc.Bookmarks == nil {
		doc.Bookmarks = model.NewEntries()
	}
	return &doc, nil
}

// do sends a JSON request and decodes the response into out. Responses that
// carry an error flag map to ErrRejected.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + BasePath + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("server request")

	var env Envelope
	if len(data) > 0 {
		_ = json.Unmarshal(data, &env)
	}
	if env.Error {
		return fmt.Errorf("%w: %s", ErrRejected, env.Reason)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
