package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

// DefaultInterval is the scheduler tick used by Run when none is given.
const DefaultInterval = 50 * time.Millisecond

// Func computes a fresh result. It must only read shared state.
type Func[R any] func(ctx context.Context) (R, error)

// Submitter runs jobs in the background. TrySubmit must not block.
type Submitter interface {
	TrySubmit(job func()) bool
}

// Pipeline is a dirty-flag driven, single-flight recompute of one result.
type Pipeline[R any] struct {
	name    string
	compute Func[R]
	submit  Submitter
	log     logging.Logger

	mu           sync.Mutex
	dirty        bool
	running      bool
	ctx          context.Context
	lastErr      error
	lastRun      time.Time
	lastDuration time.Duration
	onPublish    []func(R)

	latest     atomic.Pointer[R]
	generation atomic.Uint64

	// wake has room for one pending signal.
	wake chan struct{}
}

// Status describes a pipeline for health and stats endpoints.
type Status struct {
	Name         string     `json:"name"`
	Dirty        bool       `json:"dirty"`
	Running      bool       `json:"running"`
	Generation   uint64     `json:"generation"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

// New creates an idle, clean pipeline. Jobs go to submit; a nil submit
// runs each computation on its own goroutine.
func New[R any](name string, compute Func[R], submit Submitter) *Pipeline[R] {
	return &Pipeline[R]{
		name:    name,
		compute: compute,
		submit:  submit,
		log:     logging.For("pipeline " + name),
		ctx:     context.Background(),
		wake:    make(chan struct{}, 1),
	}
}

// Name returns the pipeline name used in logs and metrics.
func (p *Pipeline[R]) Name() string { return p.name }

// OnPublish registers fn to be called with every successfully published
// result. Hooks run on the worker before the run is marked finished and
// must not block.
func (p *Pipeline[R]) OnPublish(fn func(R)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPublish = append(p.onPublish, fn)
}

// MarkDirty requests a recompute. It is safe from any goroutine and
// repeated marks before the next run coalesce into one run.
func (p *Pipeline[R]) MarkDirty() {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()

	metrics.PipelineDirtyMarksTotal.WithLabelValues(p.name).Inc()
	p.signal()
}

// Tick starts a computation if the pipeline is dirty and idle. It reports
// whether a run was started. When the submitter refuses the job the dirty
// flag is restored so a later tick retries.
func (p *Pipeline[R]) Tick() bool {
	if !p.tryStart() {
		return false
	}
	metrics.PipelineRunning.WithLabelValues(p.name).Set(1)

	if p.submit == nil {
		go p.run()
		return true
	}
	if p.submit.TrySubmit(p.run) {
		return true
	}

	p.mu.Lock()
	p.dirty = true
	p.running = false
	p.mu.Unlock()

	metrics.PipelineRunning.WithLabelValues(p.name).Set(0)
	metrics.PipelineSubmitRejectedTotal.WithLabelValues(p.name).Inc()
	p.log.Debug("Worker pool busy, recompute deferred")
	return false
}

// tryStart moves a dirty, idle pipeline into the running state.
func (p *Pipeline[R]) tryStart() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty || p.running {
		return false
	}
	p.dirty = false
	p.running = true
	return true
}

func (p *Pipeline[R]) run() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	start := time.Now()
	result, err := p.safeCompute(ctx)
	duration := time.Since(start)
	metrics.PipelineRunDuration.WithLabelValues(p.name).Observe(duration.Seconds())

	if err == nil {
		p.latest.Store(&result)
		gen := p.generation.Add(1)
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "success").Inc()
		metrics.PipelineGeneration.WithLabelValues(p.name).Set(float64(gen))
		p.log.Debug("Published generation %d in %v", gen, duration)

		p.mu.Lock()
		hooks := p.onPublish
		p.mu.Unlock()
		for _, fn := range hooks {
			fn(result)
		}
	} else {
		p.log.Error("Recompute failed after %v: %v", duration, err)
	}

	p.mu.Lock()
	p.running = false
	p.lastRun = start
	p.lastDuration = duration
	p.lastErr = err
	p.mu.Unlock()
	metrics.PipelineRunning.WithLabelValues(p.name).Set(0)

	p.signal()
}

// safeCompute runs the compute function, converting a panic into an error.
func (p *Pipeline[R]) safeCompute(ctx context.Context) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PipelineRunsTotal.WithLabelValues(p.name, "panic").Inc()
			p.log.Error("Recompute panicked: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("recompute panicked: %v", r)
		}
	}()

	result, err = p.compute(ctx)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "error").Inc()
	}
	return result, err
}

func (p *Pipeline[R]) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run schedules the pipeline until ctx is done, ticking every interval and
// immediately after a mark or a finished run. ctx is also passed to every
// computation started from here on.
func (p *Pipeline[R]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.log.Debug("Scheduler started (interval: %v)", interval)
	for {
		p.Tick()
		select {
		case <-ctx.Done():
			p.log.Debug("Scheduler stopped")
			return
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

// Settle drives the pipeline until it is neither dirty nor running, or ctx
// is done. It is meant for one-shot callers such as the CLI and for tests;
// servers use Run.
func (p *Pipeline[R]) Settle(ctx context.Context) error {
	for {
		p.Tick()
		if p.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
		case <-time.After(time.Millisecond):
		}
	}
}

func (p *Pipeline[R]) idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.dirty && !p.running
}

// Latest returns the most recently published result, or the zero value
// before the first successful run. The returned value must be treated as
// read-only.
func (p *Pipeline[R]) Latest() R {
	if r := p.latest.Load(); r != nil {
		return *r
	}
	var zero R
	return zero
}

// Published reports whether at least one result has been published.
func (p *Pipeline[R]) Published() bool {
	return p.latest.Load() != nil
}

// Generation returns the number of results published so far.
func (p *Pipeline[R]) Generation() uint64 {
	return p.generation.Load()
}

// Running reports whether a computation is in flight.
func (p *Pipeline[R]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Dirty reports whether a recompute has been requested but not started.
func (p *Pipeline[R]) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Status returns a snapshot of the scheduler state.
func (p *Pipeline[R]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Status{
		Name:       p.name,
		Dirty:      p.dirty,
		Running:    p.running,
		Generation: p.generation.Load(),
	}
	if !p.lastRun.IsZero() {
		lastRun := p.lastRun
		s.LastRun = &lastRun
		s.LastDuration = p.lastDuration.String()
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}
