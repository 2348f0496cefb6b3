package handlers

import (
	"net/http"

	"video-shelf/internal/library"
)

type createRequest struct {
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

type renameRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type moveRequest struct {
	Path string `json:"path"`
	Dest string `json:"dest"`
}

// CreateFolder creates a folder under parent ("" is the root).
func (h *Handlers) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	parent, err := h.lib.FindFolder(req.Parent)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	f, err := parent.CreateFolder(req.Name)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.folderNode(f))
}

// RenameFolder renames a folder in place.
func (h *Handlers) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.lib.FindFolder(req.Path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if err := f.Rename(req.Name); err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.folderNode(f))
}

// MoveFolder moves a folder under dest.
func (h *Handlers) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.lib.FindFolder(req.Path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	dest, err := h.lib.FindFolder(req.Dest)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if err := f.Move(dest); err != nil {
		writeLibraryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.folderNode(f))
}

// DeleteFolder moves ?path= and everything below it to the trash.
func (h *Handlers) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	f, err := h.lib.FindFolder(path)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if f.IsRoot() {
		writeLibraryError(w, library.ErrInvalidMove)
		return
	}
	if err := f.Parent().RemoveFolder(f); err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}
