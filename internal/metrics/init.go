package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, p := range []string{"aggregate", "results"} {
		for _, status := range []string{"success", "error", "panic"} {
			PipelineRunsTotal.WithLabelValues(p, status)
		}
		PipelineRunDuration.WithLabelValues(p)
		PipelineRunning.WithLabelValues(p)
		PipelineDirtyMarksTotal.WithLabelValues(p)
		PipelineSubmitRejectedTotal.WithLabelValues(p)
		PipelineGeneration.WithLabelValues(p)
	}

	for _, c := range []string{"thumbnails"} {
		for _, result := range []string{"hit", "miss", "pending", "promoted", "failed"} {
			CacheRequestsTotal.WithLabelValues(c, result)
		}
		CacheEvictionsTotal.WithLabelValues(c)
		CacheEntries.WithLabelValues(c)
		CachePopulateTotal.WithLabelValues(c, "success")
		CachePopulateTotal.WithLabelValues(c, "error")
		CachePopulateDuration.WithLabelValues(c)
	}

	for _, status := range []string{"success", "error"} {
		LibrarySavesTotal.WithLabelValues(status)
	}

	for _, source := range []string{"remote", "video"} {
		ThumbnailGenerationsTotal.WithLabelValues(source, "success")
		ThumbnailGenerationsTotal.WithLabelValues(source, "error")
		ThumbnailGenerationDuration.WithLabelValues(source)
	}
	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		ThumbnailDecodeByFormat.WithLabelValues(format)
	}

	for _, pool := range []string{"compute", "io"} {
		for _, status := range []string{"completed", "panic", "rejected"} {
			WorkerJobsTotal.WithLabelValues(pool, status)
		}
		WorkerQueueDepth.WithLabelValues(pool)
	}

	volumes := []string{"library", "cache", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"read", "write", "stat", "readdir", "rename"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir", "write"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"get_metadata", "set_metadata", "load_selection", "save_selection", "save_library_stats", "library_stats_history"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
