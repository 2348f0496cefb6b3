package filesystem

// RetryEvent is one step of the stale file handle retry loop.
type RetryEvent string

const (
	// RetryStale is reported for every stale handle error seen.
	RetryStale RetryEvent = "stale"
	// RetryAttempt is reported before each retry.
	RetryAttempt RetryEvent = "attempt"
	// RetrySuccess is reported when a retried operation succeeds.
	RetrySuccess RetryEvent = "success"
	// RetryFailure is reported when the retry budget runs out.
	RetryFailure RetryEvent = "failure"
)

// Observer receives filesystem timings. The metrics package implements it;
// the interface lives here so filesystem does not import metrics.
type Observer interface {
	// ObserveOperation records one filesystem call. volume is the resolved
	// mount label ("library", "database", "resources"); operation is "stat",
	// "read", "readdir", "write" or "rename".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// ObserveRetry records a step of the retry loop for op on volume.
	ObserveRetry(op, volume string, event RetryEvent)

	// ObserveRetryDuration records the total time spent in a retried call.
	ObserveRetryDuration(op, volume string, durationSeconds float64)
}

// defaultObserver is nil until SetObserver is called, so tests and the CLI
// record nothing.
var defaultObserver Observer

// SetObserver installs o for every later filesystem call. Call it once at
// startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
