package handlers

import (
	"context"
	"net/http"
	"time"

	"video-shelf/internal/database"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/pipeline"
)

// FolderNode is a folder in the library tree response.
type FolderNode struct {
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Folders   []FolderNode   `json:"folders"`
	Playlists []PlaylistNode `json:"playlists"`
}

// PlaylistNode is a playlist in the library tree response.
type PlaylistNode struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Videos   int    `json:"videos"`
	Selected bool   `json:"selected"`
	Dirty    bool   `json:"dirty"`
}

func (h *Handlers) folderNode(f *library.Folder) FolderNode {
	node := FolderNode{
		Name:      f.Name(),
		Path:      f.RelPath(),
		Folders:   []FolderNode{},
		Playlists: []PlaylistNode{},
	}
	for _, child := range f.Folders() {
		node.Folders = append(node.Folders, h.folderNode(child))
	}
	for _, p := range f.Playlists() {
		node.Playlists = append(node.Playlists, h.playlistNode(p))
	}
	return node
}

func (h *Handlers) playlistNode(p *library.Playlist) PlaylistNode {
	return PlaylistNode{
		Name:     p.Name(),
		Path:     p.RelPath(),
		Videos:   p.VideoCount(),
		Selected: h.lib.IsSelected(p),
		Dirty:    p.Dirty(),
	}
}

// GetLibrary returns the folder and playlist tree.
func (h *Handlers) GetLibrary(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.folderNode(h.lib.Root()))
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Library    library.Stats           `json:"library"`
	Published  *library.Stats          `json:"published,omitempty"`
	Results    int                     `json:"results"`
	Pipelines  []pipeline.Status       `json:"pipelines"`
	Thumbnails ThumbnailStats          `json:"thumbnails"`
	History    []database.LibraryStats `json:"history,omitempty"`
	// LastAutosave is the last completed autosave, kept across restarts
	// when a database is configured.
	LastAutosave *time.Time `json:"lastAutosave,omitempty"`
}

// ThumbnailStats describes the thumbnail cache.
type ThumbnailStats struct {
	Entries  int `json:"entries"`
	Promoted int `json:"promoted"`
}

// GetStats returns live library counters, the last published aggregate and
// the pipeline states. ?history=N adds up to N stored snapshots.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	historyLimit, err := queryInt(r, "history", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := StatsResponse{
		Library:   h.lib.Stats(),
		Pipelines: h.session.Status(),
	}
	if agg := h.session.Aggregate(); agg != nil {
		stats := agg.Stats
		resp.Published = &stats
	}
	if res := h.session.Results(); res != nil {
		resp.Results = len(res.Items)
	}
	if h.thumbs != nil {
		resp.Thumbnails = ThumbnailStats{Entries: h.thumbs.Len(), Promoted: h.thumbs.PromotedLen()}
	}
	if last := h.lastAutosave(r.Context()); !last.IsZero() {
		resp.LastAutosave = &last
	}
	if historyLimit > 0 && h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		history, err := h.db.LibraryStatsHistory(ctx, historyLimit)
		if err != nil {
			writeJSONError(w, "failed to load stats history", http.StatusInternalServerError)
			return
		}
		resp.History = history
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) lastAutosave(ctx context.Context) time.Time {
	if last := h.lib.LastAutosave(); !last.IsZero() || h.db == nil {
		return last
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	last, err := h.db.GetLastAutosave(ctx)
	if err != nil {
		logging.Warn("Failed to read last autosave: %v", err)
		return time.Time{}
	}
	return last
}
