package remote

import (
	"github.com/nikbrunner/nbm/internal/model"
)

// BasePath prefixes every endpoint.
const BasePath = "/notebook-bookmarks/"

// Endpoint names.
const (
	EndpointGetAbsPath      = "getAbsPath"
	EndpointSyncBookmark    = "syncBookmark"
	EndpointUpdateBookmarks = "updateBookmarks"
	EndpointSettings        = "settings"
	EndpointImport          = "importBookmarks"
	EndpointExport          = "exportBookmarks"
)

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-Id"

// Envelope is the status part every response carries.
type Envelope struct {
	Success bool   `json:"success,omitempty"`
	Error   bool   `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// AbsPathResponse is returned by getAbsPath.
type AbsPathResponse struct {
	Envelope
	BookmarkItem *model.Bookmark `json:"bookmarkItem,omitempty"`
}

// UpdateRequest is the body of updateBookmarks.
type UpdateRequest struct {
	BookmarksData *model.Entries `json:"bookmarksData"`
}

// BookmarksResponse is returned by updateBookmarks and importBookmarks.
type BookmarksResponse struct {
	Envelope
	Bookmarks *model.Entries `json:"bookmarks,omitempty"`
}

// SettingsResponse is returned by GET settings. Settings holds the raw
// settings JSON as a string.
type SettingsResponse struct {
	Envelope
	Result   bool   `json:"result"`
	Settings string `json:"settings"`
}

// SettingsRequest is the body of POST settings.
type SettingsRequest struct {
	Settings string `json:"settings"`
}
