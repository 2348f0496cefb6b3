package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"video-shelf/internal/logging"
)

// StatsProvider reports the library counts exported as gauges.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time view of the library.
type Stats struct {
	Folders   int
	Playlists int
	Videos    int
	Stored    int
	Selected  int
	Dirty     int
}

// Collector samples a StatsProvider on an interval and updates the library
// gauges. The tree is walked on every sample, so the interval should be
// seconds rather than milliseconds.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCollector returns a collector that is not yet running.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start samples once immediately and then every interval until Stop.
// Later calls do nothing.
func (c *Collector) Start() {
	if c.started.Swap(true) {
		return
	}
	go c.loop()
}

// Stop ends sampling and waits for the loop to exit. It is safe to call
// more than once, and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) loop() {
	defer close(c.done)
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.GetStats()

	LibraryFolders.Set(float64(s.Folders))
	LibraryPlaylists.Set(float64(s.Playlists))
	LibraryVideos.Set(float64(s.Videos))
	LibraryStoredVideos.Set(float64(s.Stored))
	LibrarySelectedPlaylists.Set(float64(s.Selected))
	LibraryDirtyPlaylists.Set(float64(s.Dirty))

	logging.Debug("Library gauges: folders=%d playlists=%d videos=%d stored=%d selected=%d dirty=%d",
		s.Folders, s.Playlists, s.Videos, s.Stored, s.Selected, s.Dirty)
}
