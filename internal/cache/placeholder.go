package cache

import (
	"context"
	"fmt"
	"sync"
)

// Placeholder is a value loaded once, in the background, and shared
// read-only by every cache miss.
type Placeholder[R any] struct {
	load func(ctx context.Context) (R, error)
	once sync.Once
	done chan struct{}

	value R
	err   error
}

// NewPlaceholder returns a placeholder that runs load on the first Start.
func NewPlaceholder[R any](load func(ctx context.Context) (R, error)) *Placeholder[R] {
	return &Placeholder[R]{load: load, done: make(chan struct{})}
}

// StaticPlaceholder returns a placeholder that is ready with v.
func StaticPlaceholder[R any](v R) *Placeholder[R] {
	p := &Placeholder[R]{done: make(chan struct{}), value: v}
	p.once.Do(func() { close(p.done) })
	return p
}

// Start loads the value asynchronously. Only the first call has an effect.
func (p *Placeholder[R]) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			defer func() {
				if r := recover(); r != nil {
					p.err = fmt.Errorf("placeholder load panicked: %v", r)
				}
			}()
			p.value, p.err = p.load(ctx)
		}()
	})
}

// Ready reports whether loading has finished, successfully or not.
func (p *Placeholder[R]) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Value returns the loaded value, or the zero value while loading or after
// a failed load. It never blocks.
func (p *Placeholder[R]) Value() R {
	if p == nil || !p.Ready() {
		var zero R
		return zero
	}
	return p.value
}

// Wait blocks until the value is loaded or ctx is done. Start must have
// been called.
func (p *Placeholder[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
