package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"video-shelf/internal/cache"
	"video-shelf/internal/database"
	"video-shelf/internal/library"
	"video-shelf/internal/media"
	"video-shelf/internal/session"
)

// ThumbnailCache is the cache serving decoded thumbnails.
type ThumbnailCache = cache.Cache[string, *media.Texture]

// Deps are the components the handlers serve.
type Deps struct {
	Library    *library.Library
	Session    *session.Session
	Thumbnails *ThumbnailCache
	Fetcher    library.MetadataFetcher
	// Database is optional; without it health skips the ping and stats
	// have no history.
	Database    *database.Database
	ResourceDir string
}

// Handlers implements the HTTP API.
type Handlers struct {
	lib         *library.Library
	session     *session.Session
	thumbs      *ThumbnailCache
	fetcher     library.MetadataFetcher
	db          *database.Database
	resourceDir string
	started     time.Time
}

// New creates the handlers.
func New(deps Deps) *Handlers {
	return &Handlers{
		lib:         deps.Library,
		session:     deps.Session,
		thumbs:      deps.Thumbnails,
		fetcher:     deps.Fetcher,
		db:          deps.Database,
		resourceDir: deps.ResourceDir,
		started:     time.Now(),
	}
}

// Router returns a router with every route registered.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

// Register adds the routes to r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/library", h.GetLibrary).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/folders", h.CreateFolder).Methods(http.MethodPost)
	api.HandleFunc("/folders", h.DeleteFolder).Methods(http.MethodDelete)
	api.HandleFunc("/folders/rename", h.RenameFolder).Methods(http.MethodPut)
	api.HandleFunc("/folders/move", h.MoveFolder).Methods(http.MethodPut)

	api.HandleFunc("/playlists", h.CreatePlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists", h.DeletePlaylist).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/rename", h.RenamePlaylist).Methods(http.MethodPut)
	api.HandleFunc("/playlists/move", h.MovePlaylist).Methods(http.MethodPut)

	api.HandleFunc("/playlist/videos", h.GetPlaylistVideos).Methods(http.MethodGet)
	api.HandleFunc("/playlist/videos", h.AddPlaylistVideos).Methods(http.MethodPost)
	api.HandleFunc("/playlist/videos", h.RemovePlaylistVideo).Methods(http.MethodDelete)

	api.HandleFunc("/selection", h.GetSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.PutSelection).Methods(http.MethodPut)

	api.HandleFunc("/query", h.GetQuery).Methods(http.MethodGet)
	api.HandleFunc("/query", h.PutQuery).Methods(http.MethodPut)
	api.HandleFunc("/results", h.GetResults).Methods(http.MethodGet)
	api.HandleFunc("/uploaders", h.GetUploaders).Methods(http.MethodGet)

	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/thumbnail/video", h.GetVideoThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/domain-icon/{domain}", h.GetDomainIcon).Methods(http.MethodGet)

	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.PutSettings).Methods(http.MethodPut)
}
