// Package cache implements a bounded, non-blocking resource cache.
//
// Get never waits for I/O. A miss inserts a pending entry, submits the
// loader to a worker pool and returns the shared placeholder. Once the
// loader finishes, the next Get promotes the loaded value (for thumbnails:
// encodes it for serving) and returns it from then on.
//
// The number of promoted entries is bounded. Every promotion appends the key
// to a FIFO queue and the oldest keys are released once the queue exceeds
// MaxEntries. Eviction therefore follows promotion order, not access order:
// an old entry that is read constantly can be evicted before a newer one
// that is never read again. Reloading an evicted thumbnail is cheap, so the
// simpler queue is preferred over tracking every access.
package cache
