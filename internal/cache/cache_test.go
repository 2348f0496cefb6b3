package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type inline struct{}

func (inline) TrySubmit(job func()) bool {
	job()
	return true
}

type refuse struct{}

func (refuse) TrySubmit(func()) bool { return false }

// recorder promotes strings by upper-casing a marker and records releases.
type recorder struct {
	mu       sync.Mutex
	promoted []string
	released []string
	fail     bool
}

func (r *recorder) Promote(v string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return "", errors.New("upload failed")
	}
	r.promoted = append(r.promoted, v)
	return "promoted:" + v, nil
}

func (r *recorder) Release(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, v)
}

func (r *recorder) releasedList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.released...)
}

func countingLoader(calls *atomic.Int32) Loader[string, string] {
	return func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return "value-" + key, nil
	}
}

func TestGetLifecycle(t *testing.T) {
	var calls atomic.Int32
	rec := &recorder{}
	c := New(Config{Name: "test"}, countingLoader(&calls), rec, inline{}, StaticPlaceholder("placeholder"))

	v, state := c.Lookup("a")
	if v != "placeholder" {
		t.Errorf("first Get() = %q, want placeholder", v)
	}
	if state != Ready {
		t.Errorf("state after inline load = %v, want ready", state)
	}

	v, state = c.Lookup("a")
	if v != "promoted:value-a" || state != Promoted {
		t.Errorf("second Lookup() = %q, %v", v, state)
	}
	if got := c.Get("a"); got != "promoted:value-a" {
		t.Errorf("third Get() = %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
	if len(rec.promoted) != 1 {
		t.Errorf("promoted %d times, want 1", len(rec.promoted))
	}
}

func TestEvictionIsFIFO(t *testing.T) {
	var calls atomic.Int32
	rec := &recorder{}
	c := New(Config{Name: "test", MaxEntries: 2}, countingLoader(&calls), rec, inline{}, nil)

	for _, key := range []string{"a", "b"} {
		c.Get(key)
		c.Get(key)
	}
	// Reading "a" again does not refresh its position.
	c.Get("a")
	c.Get("c")
	c.Get("c")

	if c.State("a") != Absent {
		t.Errorf("State(a) = %v, want absent after eviction", c.State("a"))
	}
	if c.State("b") != Promoted || c.State("c") != Promoted {
		t.Errorf("State(b) = %v, State(c) = %v", c.State("b"), c.State("c"))
	}
	if got := c.PromotedLen(); got != 2 {
		t.Errorf("PromotedLen() = %d, want 2", got)
	}
	if got := rec.releasedList(); len(got) != 1 || got[0] != "promoted:value-a" {
		t.Errorf("released = %v", got)
	}

	c.Get("a")
	if calls.Load() != 4 {
		t.Errorf("evicted key was not reloaded, loader calls = %d", calls.Load())
	}
}

func TestLoadFailureAndRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	load := func(ctx context.Context, key string) (string, error) {
		if fail.Load() {
			return "", errors.New("not found")
		}
		return "ok", nil
	}
	c := New(Config{Name: "test", RetryAfter: time.Minute}, load, nil, inline{}, StaticPlaceholder("ph"))
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Get("k")
	if v, state := c.Lookup("k"); v != "ph" || state != Failed {
		t.Fatalf("Lookup() = %q, %v; want placeholder, failed", v, state)
	}
	if c.Err("k") == nil {
		t.Error("Err() = nil for failed key")
	}

	fail.Store(false)
	if _, state := c.Lookup("k"); state != Failed {
		t.Errorf("retried before RetryAfter, state = %v", state)
	}

	now = now.Add(time.Minute)
	c.Get("k")
	if v := c.Get("k"); v != "ok" {
		t.Errorf("Get() after retry = %q, want ok", v)
	}
}

func TestPromoteFailure(t *testing.T) {
	var calls atomic.Int32
	rec := &recorder{fail: true}
	c := New(Config{Name: "test"}, countingLoader(&calls), rec, inline{}, StaticPlaceholder("ph"))

	c.Get("k")
	if v, state := c.Lookup("k"); v != "ph" || state != Failed {
		t.Errorf("Lookup() = %q, %v; want placeholder, failed", v, state)
	}
	if got := rec.releasedList(); len(got) != 1 || got[0] != "value-k" {
		t.Errorf("released = %v, want the unpromoted value", got)
	}
}

func TestRejectedSubmitLeavesKeyAbsent(t *testing.T) {
	var calls atomic.Int32
	c := New(Config{Name: "test"}, countingLoader(&calls), nil, refuse{}, StaticPlaceholder("ph"))

	if v, state := c.Lookup("k"); v != "ph" || state != Absent {
		t.Errorf("Lookup() = %q, %v; want placeholder, absent", v, state)
	}
	if c.Len() != 0 || calls.Load() != 0 {
		t.Errorf("Len() = %d, loader calls = %d", c.Len(), calls.Load())
	}
}

func TestRemoveDuringLoad(t *testing.T) {
	release := make(chan struct{})
	load := func(ctx context.Context, key string) (string, error) {
		<-release
		return "late", nil
	}
	rec := &recorder{}
	c := New(Config{Name: "test"}, load, rec, nil, nil)

	if _, state := c.Lookup("k"); state != Pending {
		t.Fatalf("state = %v, want pending", state)
	}
	c.Remove("k")
	close(release)
	c.Wait()

	if c.State("k") != Absent {
		t.Errorf("State() = %v, want absent", c.State("k"))
	}
	if got := rec.releasedList(); len(got) != 1 || got[0] != "late" {
		t.Errorf("discarded value not released: %v", got)
	}
}

func TestPurge(t *testing.T) {
	var calls atomic.Int32
	rec := &recorder{}
	c := New(Config{Name: "test"}, countingLoader(&calls), rec, inline{}, nil)
	for _, k := range []string{"a", "b", "c"} {
		c.Get(k)
	}
	c.Get("a")

	c.Purge()
	if c.Len() != 0 || c.PromotedLen() != 0 {
		t.Errorf("Len() = %d, PromotedLen() = %d after Purge", c.Len(), c.PromotedLen())
	}
	if got := len(rec.releasedList()); got != 3 {
		t.Errorf("Purge released %d values, want 3", got)
	}
}

func TestConcurrentGetLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	load := func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return key, nil
	}
	c := New(Config{Name: "test"}, load, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 10; k++ {
				c.Get(fmt.Sprintf("key-%d", k))
			}
		}()
	}
	wg.Wait()
	c.Wait()

	if calls.Load() != 10 {
		t.Errorf("loader called %d times for 10 keys", calls.Load())
	}
	for k := 0; k < 10; k++ {
		key := fmt.Sprintf("key-%d", k)
		if got := c.Get(key); got != key {
			t.Errorf("Get(%q) = %q", key, got)
		}
	}
}

func TestLoaderPanic(t *testing.T) {
	load := func(ctx context.Context, key string) (string, error) { panic("decoder bug") }
	c := New(Config{Name: "test"}, load, nil, inline{}, nil)
	c.Get("k")
	if c.State("k") != Failed {
		t.Errorf("State() = %v, want failed after panic", c.State("k"))
	}
}

func TestPlaceholder(t *testing.T) {
	p := NewPlaceholder(func(ctx context.Context) (int, error) { return 42, nil })
	if p.Ready() || p.Value() != 0 {
		t.Error("placeholder ready before Start")
	}
	p.Start(context.Background())
	p.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := p.Wait(ctx)
	if err != nil || v != 42 || p.Value() != 42 {
		t.Errorf("Wait() = %d, %v", v, err)
	}

	failing := NewPlaceholder(func(ctx context.Context) (int, error) { return 0, errors.New("missing") })
	failing.Start(context.Background())
	if _, err := failing.Wait(ctx); err == nil {
		t.Error("Wait() error = nil for failed load")
	}

	var nilPlaceholder *Placeholder[string]
	if nilPlaceholder.Value() != "" {
		t.Error("nil placeholder Value() not zero")
	}
}
