// Package metrics provides Prometheus instrumentation for the video shelf.
//
// All metrics are registered with promauto at package initialisation and are
// prefixed with "video_shelf_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Pipeline Metrics
//
// Every recompute pipeline reports under its own "pipeline" label
// ("aggregate", "results"):
//   - PipelineRunsTotal: runs by outcome (success, error, panic)
//   - PipelineRunDuration: compute time
//   - PipelineRunning: 1 while a compute is in flight
//   - PipelineDirtyMarksTotal: MarkDirty calls
//   - PipelineSubmitRejectedTotal: jobs the worker pool refused
//   - PipelineGeneration: number of published results
//
// ## Search Metrics
//   - SearchCandidates, SearchResults, SearchDuration
//
// ## Cache Metrics
//
// Reported per cache name ("thumbnails", "icons"):
//   - CacheRequestsTotal: lookups by result (hit, miss, pending, promoted)
//   - CacheEvictionsTotal, CacheEntries
//   - CachePopulateTotal, CachePopulateDuration
//
// ## Library Metrics
//   - LibraryFolders, LibraryPlaylists, LibraryVideos, LibrarySelectedPlaylists
//   - LibrarySavesTotal, LibrarySaveDuration
//
// ## Thumbnail, Worker and Filesystem Metrics
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration, ThumbnailDecodeByFormat
//   - WorkerJobsTotal, WorkerQueueDepth
//   - Filesystem* retry and operation metrics recorded through the
//     filesystem.Observer returned by NewFilesystemObserver
//
// # Usage
//
//	metrics.InitializeMetrics()
//	collector := metrics.NewCollector(lib, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
