// Package pipeline provides a coalescing single-flight recompute job.
//
// A Pipeline owns one compute function and the latest result it produced.
// Callers mark the pipeline dirty whenever an input changes; the scheduler
// (Tick or Run) starts at most one computation at a time on a worker pool
// and publishes its result atomically. Marks that arrive while a run is in
// flight are kept and cause exactly one follow-up run, so the published
// result converges on the final input state.
//
// A failed or panicking computation is logged and counted, and the previous
// result stays published.
//
// Example:
//
//	p := pipeline.New("results", computeResults, pool)
//	p.OnPublish(func(r Results) { notifyClients(r) })
//	go p.Run(ctx, 50*time.Millisecond)
//
//	p.MarkDirty()
//	latest := p.Latest()
package pipeline
