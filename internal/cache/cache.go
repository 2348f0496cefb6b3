package cache

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

// DefaultMaxEntries bounds the number of promoted entries.
const DefaultMaxEntries = 200

// Loader produces the resource for key. It runs on a worker.
type Loader[K comparable, R any] func(ctx context.Context, key K) (R, error)

// Promoter prepares loaded resources for presentation and disposes of them.
// Promote runs synchronously in the Get that first sees a loaded value.
// Release runs when a resource leaves the cache.
type Promoter[R any] interface {
	Promote(R) (R, error)
	Release(R)
}

// Submitter runs jobs in the background. TrySubmit must not block.
type Submitter interface {
	TrySubmit(job func()) bool
}

// State is the lifecycle stage of a cache entry.
type State int

const (
	Absent State = iota
	Pending
	Ready
	Promoted
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Promoted:
		return "promoted"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// Config tunes a Cache.
type Config struct {
	// Name labels logs and metrics.
	Name string
	// MaxEntries bounds promoted entries. Defaults to DefaultMaxEntries.
	MaxEntries int
	// RetryAfter is how long a failed key serves the placeholder before the
	// next Get loads it again. Zero never retries until Remove or Purge.
	RetryAfter time.Duration
}

type entry[R any] struct {
	state    State
	value    R
	err      error
	failedAt time.Time
}

// Cache maps keys to lazily loaded resources.
type Cache[K comparable, R any] struct {
	name       string
	max        int
	retryAfter time.Duration

	load        Loader[K, R]
	promoter    Promoter[R]
	submit      Submitter
	placeholder *Placeholder[R]
	log         logging.Logger

	ctx context.Context
	now func() time.Time

	mu      sync.Mutex
	entries map[K]*entry[R]
	fifo    []K
	loading sync.WaitGroup
}

// New creates a cache. promoter and placeholder may be nil; a nil submit
// loads on a new goroutine per miss.
func New[K comparable, R any](cfg Config, load Loader[K, R], promoter Promoter[R], submit Submitter, placeholder *Placeholder[R]) *Cache[K, R] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}
	return &Cache[K, R]{
		name:        cfg.Name,
		max:         cfg.MaxEntries,
		retryAfter:  cfg.RetryAfter,
		load:        load,
		promoter:    promoter,
		submit:      submit,
		placeholder: placeholder,
		log:         logging.For(cfg.Name + " cache"),
		ctx:         context.Background(),
		now:         time.Now,
		entries:     make(map[K]*entry[R]),
	}
}

// WithContext sets the context passed to loaders started after the call.
func (c *Cache[K, R]) WithContext(ctx context.Context) *Cache[K, R] {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	return c
}

// Get returns the resource for key, or the placeholder while it is not
// available. It never blocks on loading.
func (c *Cache[K, R]) Get(key K) R {
	v, _ := c.Lookup(key)
	return v
}

// Lookup is Get that also reports the entry state after the call. The
// value is the placeholder unless the state is Promoted.
func (c *Cache[K, R]) Lookup(key K) (R, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()
		c.startLoad(key)
		return c.placeholder.Value(), c.stateOf(key)
	}

	switch e.state {
	case Promoted:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
		return e.value, Promoted

	case Ready:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "promoted").Inc()
		if err := c.promote(key, e); err != nil {
			c.log.Warn("Failed to promote %v: %v", key, err)
			return c.placeholder.Value(), Failed
		}
		return e.value, Promoted

	case Failed:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "failed").Inc()
		if c.retryAfter > 0 && c.now().Sub(e.failedAt) >= c.retryAfter {
			delete(c.entries, key)
			c.startLoad(key)
			return c.placeholder.Value(), c.stateOf(key)
		}
		return c.placeholder.Value(), Failed

	default:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "pending").Inc()
		return c.placeholder.Value(), e.state
	}
}

func (c *Cache[K, R]) stateOf(key K) State {
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return Absent
}

// promote must be called with c.mu held.
func (c *Cache[K, R]) promote(key K, e *entry[R]) error {
	if c.promoter != nil {
		promoted, err := c.promoter.Promote(e.value)
		if err != nil {
			c.promoter.Release(e.value)
			var zero R
			e.state, e.value, e.err, e.failedAt = Failed, zero, err, c.now()
			return err
		}
		e.value = promoted
	}
	e.state = Promoted

	c.fifo = append(c.fifo, key)
	for len(c.fifo) > c.max {
		oldest := c.fifo[0]
		c.fifo = c.fifo[1:]
		c.evict(oldest)
	}
	return nil
}

// evict must be called with c.mu held.
func (c *Cache[K, R]) evict(key K) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.release(e)
	metrics.CacheEvictionsTotal.WithLabelValues(c.name).Inc()
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

func (c *Cache[K, R]) release(e *entry[R]) {
	if c.promoter != nil && (e.state == Ready || e.state == Promoted) {
		c.promoter.Release(e.value)
	}
}

// startLoad must be called with c.mu held.
func (c *Cache[K, R]) startLoad(key K) {
	e := &entry[R]{state: Pending}
	c.entries[key] = e
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))

	ctx := c.ctx
	c.loading.Add(1)
	job := func() {
		defer c.loading.Done()
		c.populate(ctx, key, e)
	}

	if c.submit == nil {
		go job()
		return
	}

	// The submitter may run the job inline, which takes c.mu again.
	c.mu.Unlock()
	accepted := c.submit.TrySubmit(job)
	c.mu.Lock()
	if accepted {
		return
	}

	c.loading.Done()
	metrics.CachePopulateTotal.WithLabelValues(c.name, "rejected").Inc()
	if c.entries[key] == e {
		delete(c.entries, key)
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
	}
}

func (c *Cache[K, R]) populate(ctx context.Context, key K, e *entry[R]) {
	start := time.Now()
	value, err := c.safeLoad(ctx, key)
	metrics.CachePopulateDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != e {
		// Removed or purged while loading.
		if err == nil && c.promoter != nil {
			c.promoter.Release(value)
		}
		return
	}

	if err != nil {
		metrics.CachePopulateTotal.WithLabelValues(c.name, "error").Inc()
		c.log.Debug("Failed to load %v: %v", key, err)
		e.state, e.err, e.failedAt = Failed, err, c.now()
		return
	}

	metrics.CachePopulateTotal.WithLabelValues(c.name, "success").Inc()
	e.state, e.value = Ready, value
}

func (c *Cache[K, R]) safeLoad(ctx context.Context, key K) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Loader panicked for %v: %v\n%s", key, r, debug.Stack())
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	return c.load(ctx, key)
}

// State reports the stage of key without loading it.
func (c *Cache[K, R]) State(key K) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateOf(key)
}

// Err returns the load error of a failed key.
func (c *Cache[K, R]) Err(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}

// Len returns the number of tracked keys in any state.
func (c *Cache[K, R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PromotedLen returns the number of promoted entries.
func (c *Cache[K, R]) PromotedLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fifo)
}

// Remove releases key so the next Get loads it again.
func (c *Cache[K, R]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	if i := slices.Index(c.fifo, key); i >= 0 {
		c.fifo = slices.Delete(c.fifo, i, i+1)
	}
	c.release(e)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Purge releases every entry. Loads still in flight are discarded when they
// finish.
func (c *Cache[K, R]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		c.release(e)
	}
	clear(c.entries)
	c.fifo = nil
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
}

// Wait blocks until every load started so far has finished.
func (c *Cache[K, R]) Wait() {
	c.loading.Wait()
}
