package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"video-shelf/internal/filesystem"
)

func TestPipelineMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"PipelineRunsTotal", PipelineRunsTotal},
		{"PipelineRunDuration", PipelineRunDuration},
		{"PipelineRunning", PipelineRunning},
		{"PipelineDirtyMarksTotal", PipelineDirtyMarksTotal},
		{"PipelineSubmitRejectedTotal", PipelineSubmitRejectedTotal},
		{"PipelineGeneration", PipelineGeneration},
		{"CacheRequestsTotal", CacheRequestsTotal},
		{"CacheEvictionsTotal", CacheEvictionsTotal},
		{"CacheEntries", CacheEntries},
		{"SearchDuration", SearchDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("InitializeMetrics panicked: %v", r)
		}
	}()
	InitializeMetrics()
	InitializeMetrics()
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25"))
	if got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "write"))
	obs.ObserveOperation("library", "write", 0.01, errors.New("disk full"))
	obs.ObserveOperation("library", "write", 0.01, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "write"))

	if after-before != 1 {
		t.Errorf("operation errors increased by %v, want 1", after-before)
	}

	tests := []struct {
		event   filesystem.RetryEvent
		counter *prometheus.CounterVec
	}{
		{filesystem.RetryStale, FilesystemStaleErrors},
		{filesystem.RetryAttempt, FilesystemRetryAttempts},
		{filesystem.RetrySuccess, FilesystemRetrySuccess},
		{filesystem.RetryFailure, FilesystemRetryFailures},
	}
	for _, tt := range tests {
		before := testutil.ToFloat64(tt.counter.WithLabelValues("stat", "library"))
		obs.ObserveRetry("stat", "library", tt.event)
		if got := testutil.ToFloat64(tt.counter.WithLabelValues("stat", "library")); got-before != 1 {
			t.Errorf("%s counter increased by %v, want 1", tt.event, got-before)
		}
	}
}
