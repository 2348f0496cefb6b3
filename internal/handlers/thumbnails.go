package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"video-shelf/internal/cache"
	"video-shelf/internal/filesystem"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/media"
	"video-shelf/internal/mediatypes"
)

// ThumbnailStateHeader carries the cache state of the served key. Anything
// but "promoted" means the body is the placeholder and the client should
// ask again later.
const ThumbnailStateHeader = "X-Thumbnail-State"

// GetThumbnail serves the cached texture for ?key=, which is the remote
// thumbnail URL of a library video or a file inside the library directory.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSONError(w, "key is required", http.StatusBadRequest)
		return
	}
	allowed := h.insideLibrary(key)
	if media.IsRemote(key) {
		allowed = h.session.Aggregate().KnownThumbnailURL(key)
	}
	if !allowed {
		writeJSONError(w, "key must be a video thumbnail URL or a library file", http.StatusForbidden)
		return
	}
	h.serveTexture(w, key)
}

// GetVideoThumbnail serves the thumbnail of the video with ?url=: the
// cached file when it exists, otherwise the remote thumbnail URL.
func (h *Handlers) GetVideoThumbnail(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	var key string
	if v, ok := h.session.Aggregate().Video(url); ok {
		if v.HasThumbnail() {
			key = v.ThumbnailPath()
		} else {
			key = v.ThumbnailURL
		}
	}
	if key == "" {
		writeJSONError(w, "no thumbnail for video", http.StatusNotFound)
		return
	}
	h.serveTexture(w, key)
}

func (h *Handlers) serveTexture(w http.ResponseWriter, key string) {
	if h.thumbs == nil {
		writeJSONError(w, "thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	tex, state := h.thumbs.Lookup(key)
	w.Header().Set(ThumbnailStateHeader, state.String())
	data := tex.Bytes()
	if len(data) == 0 {
		// Placeholder still loading.
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if state == cache.Promoted {
		w.Header().Set("Cache-Control", "private, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write thumbnail %s: %v", key, err)
	}
}

func (h *Handlers) insideLibrary(path string) bool {
	root, err := filepath.Abs(h.lib.Dir())
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// GetDomainIcon serves the icon of an uploader domain, or the placeholder
// image for domains without one.
func (h *Handlers) GetDomainIcon(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]
	path := media.DomainIconPath(h.resourceDir, domain)

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, "icon not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to open domain icon %s: %v", path, err)
		writeJSONError(w, "failed to open icon", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSONError(w, "failed to stat icon", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.Ext(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
