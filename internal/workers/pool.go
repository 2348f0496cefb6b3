package workers

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

// ErrPoolClosed is returned when submitting to a pool that has been closed.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted jobs on a fixed set of goroutines fed by a bounded
// queue. A panicking job is recovered and logged; the worker keeps running.
type Pool struct {
	name string
	size int
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers reading from a queue holding up to queue jobs.
func NewPool(name string, size, queue int) *Pool {
	if size < 1 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}

	p := &Pool{
		name: name,
		size: size,
		jobs: make(chan func(), queue),
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	logging.Debug("Worker pool %q started with %d workers (queue %d)", name, size, queue)
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		metrics.WorkerQueueDepth.WithLabelValues(p.name).Set(float64(len(p.jobs)))
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.WorkerJobsTotal.WithLabelValues(p.name, "panic").Inc()
			logging.Error("Worker pool %q: job panicked: %v\n%s", p.name, r, debug.Stack())
		}
	}()
	job()
	metrics.WorkerJobsTotal.WithLabelValues(p.name, "completed").Inc()
}

// TrySubmit queues job without blocking. It returns false when the queue is
// full or the pool is closed.
func (p *Pool) TrySubmit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.jobs <- job:
		metrics.WorkerQueueDepth.WithLabelValues(p.name).Set(float64(len(p.jobs)))
		return true
	default:
		metrics.WorkerJobsTotal.WithLabelValues(p.name, "rejected").Inc()
		return false
	}
}

// Submit queues job, waiting for queue space until ctx is done.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		metrics.WorkerQueueDepth.WithLabelValues(p.name).Set(float64(len(p.jobs)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of queued jobs not yet picked up.
func (p *Pool) Pending() int {
	return len(p.jobs)
}

// Close stops accepting jobs, lets the workers drain the queue and waits for
// them to exit. Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Debug("Worker pool %q stopped", p.name)
}
