package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_db_queries_total",
			Help: "Total number of settings database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_db_query_duration_seconds",
			Help:    "Settings database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_pipeline_runs_total",
			Help: "Total number of recompute runs by pipeline and outcome",
		},
		[]string{"pipeline", "status"}, // "success", "error", "panic"
	)

	PipelineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_pipeline_run_duration_seconds",
			Help:    "Duration of recompute runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"pipeline"},
	)

	PipelineRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_shelf_pipeline_running",
			Help: "Whether a recompute is currently in flight (1 = running)",
		},
		[]string{"pipeline"},
	)

	PipelineDirtyMarksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_pipeline_dirty_marks_total",
			Help: "Total number of times a pipeline input was marked dirty",
		},
		[]string{"pipeline"},
	)

	PipelineSubmitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_pipeline_submit_rejected_total",
			Help: "Total number of recompute jobs the worker pool refused",
		},
		[]string{"pipeline"},
	)

	PipelineGeneration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_shelf_pipeline_generation",
			Help: "Number of results published by a pipeline",
		},
		[]string{"pipeline"},
	)
)

// Search metrics
var (
	SearchCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_search_candidates",
			Help: "Number of videos considered by the last search run",
		},
	)

	SearchResults = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_search_results",
			Help: "Number of videos returned by the last search run",
		},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_shelf_search_duration_seconds",
			Help:    "Duration of filter, score and sort runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Resource cache metrics
var (
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_cache_requests_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"cache", "result"}, // "hit", "miss", "pending", "promoted"
	)

	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_cache_evictions_total",
			Help: "Total number of resources evicted from the cache",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_shelf_cache_entries",
			Help: "Number of keys currently tracked by the cache",
		},
		[]string{"cache"},
	)

	CachePopulateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_cache_populate_total",
			Help: "Total number of background population attempts by outcome",
		},
		[]string{"cache", "status"},
	)

	CachePopulateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_cache_populate_duration_seconds",
			Help:    "Duration of background resource population in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"cache"},
	)
)

// Library metrics
var (
	LibraryFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_folders",
			Help: "Number of playlist folders in the library",
		},
	)

	LibraryPlaylists = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_playlists",
			Help: "Number of playlists in the library",
		},
	)

	LibraryVideos = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_videos",
			Help: "Number of distinct videos in the library",
		},
	)

	LibraryStoredVideos = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_stored_videos",
			Help: "Number of videos stored across all playlists, counting duplicates",
		},
	)

	LibraryDirtyPlaylists = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_dirty_playlists",
			Help: "Number of playlists with unsaved changes",
		},
	)

	LibrarySelectedPlaylists = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_selected_playlists",
			Help: "Number of playlists currently selected",
		},
	)

	LibrarySavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_library_saves_total",
			Help: "Total number of playlist saves by outcome",
		},
		[]string{"status"},
	)

	LibraryWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_library_watcher_events_total",
			Help: "Total number of file system events seen in the library directory",
		},
		[]string{"type"},
	)

	LibraryWatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_shelf_library_watcher_errors_total",
			Help: "Total number of library watcher errors",
		},
	)

	LibraryWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_library_watched_directories",
			Help: "Number of library directories being watched",
		},
	)

	LibraryExternalChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_library_external_changes_total",
			Help: "Total number of playlists and folders picked up from outside changes",
		},
		[]string{"kind"}, // "reload", "playlist", "folder"
	)

	LibrarySaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_shelf_library_save_duration_seconds",
			Help:    "Duration of playlist saves in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_thumbnail_generations_total",
			Help: "Total number of thumbnail files created by source and outcome",
		},
		[]string{"source", "status"}, // source: "remote", "file", "video"
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_thumbnail_generation_duration_seconds",
			Help:    "Time to create a thumbnail file in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	ThumbnailDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_thumbnail_decode_total",
			Help: "Total number of decoded thumbnail images by format",
		},
		[]string{"format"},
	)
)

// Worker pool metrics
var (
	WorkerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_worker_jobs_total",
			Help: "Total number of worker pool jobs by outcome",
		},
		[]string{"pool", "status"}, // "completed", "panic", "rejected"
	)

	WorkerQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_shelf_worker_queue_depth",
			Help: "Number of jobs waiting in a worker pool queue",
		},
		[]string{"pool"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_shelf_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_shelf_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_shelf_memory_paused",
			Help: "Whether background thumbnail work is paused for memory (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_shelf_memory_pauses_total",
			Help: "Total number of times background work was paused for memory",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_shelf_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
