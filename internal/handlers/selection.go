package handlers

import (
	"net/http"

	"video-shelf/internal/library"
)

// SelectionBody lists selected playlists by path in selection order.
type SelectionBody struct {
	Paths []string `json:"paths"`
}

// GetSelection returns the selected playlists.
func (h *Handlers) GetSelection(w http.ResponseWriter, _ *http.Request) {
	selected := h.lib.Selected()
	body := SelectionBody{Paths: make([]string, 0, len(selected))}
	for _, p := range selected {
		body.Paths = append(body.Paths, p.RelPath())
	}
	respondJSON(w, http.StatusOK, body)
}

// PutSelection replaces the selection. An empty list clears it; any
// unknown path rejects the whole request.
func (h *Handlers) PutSelection(w http.ResponseWriter, r *http.Request) {
	var body SelectionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	playlists := make([]*library.Playlist, 0, len(body.Paths))
	for _, path := range body.Paths {
		p, err := h.lib.FindPlaylist(path)
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		playlists = append(playlists, p)
	}
	h.lib.SetSelection(playlists)
	h.GetSelection(w, r)
}
