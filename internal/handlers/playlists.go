package handlers

import (
	"net/http"

	"video-shelf/internal/library"
)

// CreatePlaylist creates an empty playlist under parent ("" is the root).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	parent, err := h.lib.FindFolder(req.Parent)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	p, err := parent.CreatePlaylist(r.Context(), req.Name)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.playlistNode(p))
}

// RenamePlaylist renames a playlist in place.
func (h *Handlers) RenamePlaylist(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.lib.FindPlaylist(req.Path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if err := p.Rename(req.Name); err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.playlistNode(p))
}

// MovePlaylist moves a playlist into dest.
func (h *Handlers) MovePlaylist(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.lib.FindPlaylist(req.Path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	dest, err := h.lib.FindFolder(req.Dest)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if err := p.Move(dest); err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.playlistNode(p))
}

// DeletePlaylist moves ?path= to the trash.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	p, err := h.lib.FindPlaylist(path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if err := p.Folder().RemovePlaylist(p); err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// PlaylistVideosResponse is the body of GET /api/playlist/videos.
type PlaylistVideosResponse struct {
	Playlist PlaylistNode     `json:"playlist"`
	Videos   []*library.Video `json:"videos"`
}

// GetPlaylistVideos lists the videos of ?path= in stored order.
func (h *Handlers) GetPlaylistVideos(w http.ResponseWriter, r *http.Request) {
	p, err := h.lib.FindPlaylist(r.URL.Query().Get("path"))
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	videos := p.Videos()
	if videos == nil {
		videos = []*library.Video{}
	}
	respondJSON(w, http.StatusOK, PlaylistVideosResponse{Playlist: h.playlistNode(p), Videos: videos})
}

type addVideosRequest struct {
	Path string   `json:"path"`
	URLs []string `json:"urls,omitempty"`
	// Text is scanned for links, as pasted from the clipboard.
	Text string `json:"text,omitempty"`
}

// AddPlaylistVideos fetches metadata for every link and adds the videos.
// Links already in the playlist are skipped.
func (h *Handlers) AddPlaylistVideos(w http.ResponseWriter, r *http.Request) {
	var req addVideosRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.lib.FindPlaylist(req.Path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	links := append(req.URLs, library.ExtractLinks(req.Text)...)
	if len(links) == 0 {
		writeJSONError(w, "no links given", http.StatusBadRequest)
		return
	}
	if h.fetcher == nil {
		writeJSONError(w, "no metadata fetcher configured", http.StatusServiceUnavailable)
		return
	}

	resp := library.AddLinks(r.Context(), p, h.fetcher, links)
	status := http.StatusOK
	if len(resp.Added) == 0 && len(resp.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, resp)
}

// RemovePlaylistVideo removes ?url= from ?path=.
func (h *Handlers) RemovePlaylistVideo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := h.lib.FindPlaylist(q.Get("path"))
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	url := q.Get("url")
	if url == "" {
		writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}
	if !p.RemoveURL(url) {
		writeJSONError(w, "video not in playlist", http.StatusNotFound)
		return
	}
	writeJSONStatus(w, "removed")
}
