package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"video-shelf/internal/pipeline"
	"video-shelf/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string            `json:"status"`
	Ready         bool              `json:"ready"`
	Version       string            `json:"version"`
	Uptime        string            `json:"uptime"`
	Pipelines     []pipeline.Status `json:"pipelines"`
	DatabaseError string            `json:"databaseError,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	Playlists  int `json:"playlists"`
	Videos     int `json:"videos"`
	Thumbnails int `json:"thumbnails"`
}

// ready reports whether the first result list has been published.
func (h *Handlers) ready() bool {
	return h.session.Results() != nil
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Ready:        h.ready(),
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Pipelines:    h.session.Status(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if agg := h.session.Aggregate(); agg != nil {
		response.Playlists = agg.Stats.Playlists
		response.Videos = agg.Stats.Videos
	}
	if h.thumbs != nil {
		response.Thumbnails = h.thumbs.PromotedLen()
	}

	response.Status = statusHealthy
	if !response.Ready {
		response.Status = statusStarting
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.DatabaseError = err.Error()
			response.Status = statusDegraded
		}
	}
	for _, p := range response.Pipelines {
		if p.LastError != "" && response.Status == statusHealthy {
			response.Status = statusDegraded
		}
	}

	status := http.StatusOK
	if !response.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the first results are published
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
