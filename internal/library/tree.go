package library

import (
	"sync"
	"sync/atomic"
	"time"

	"video-shelf/internal/logging"
)

// Submitter runs background jobs. TrySubmit must not block.
type Submitter interface {
	TrySubmit(job func()) bool
}

// ThumbnailFunc is called for every stored video that has a thumbnail
// source but no cached thumbnail file.
type ThumbnailFunc func(p *Playlist, v *Video)

// tree is the state shared by every folder and playlist of one library.
type tree struct {
	// mu orders structural changes (create, rename, move, delete) against
	// saves. Lock order is tree, playlist, folder.
	mu sync.RWMutex

	store    VideoStore
	trashDir string
	interval time.Duration
	submit   Submitter
	log      logging.Logger

	saves sync.WaitGroup

	listenersMu sync.RWMutex
	listeners   []func()

	thumbnails atomic.Pointer[ThumbnailFunc]
	onRemove   func(*Playlist)

	lastAutosave atomic.Int64 // unix nanoseconds
	onAutosave   func(time.Time)

	// writes records when the library itself last wrote each playlist
	// file, so the watcher can tell its own writes from outside edits.
	writesMu sync.Mutex
	writes   map[string]time.Time
}

func (t *tree) background(job func()) {
	if t.submit != nil && t.submit.TrySubmit(job) {
		return
	}
	go job()
}

// autosaved records a completed save pass.
func (t *tree) autosaved() {
	now := time.Now()
	t.lastAutosave.Store(now.UnixNano())
	if t.onAutosave != nil {
		t.onAutosave(now)
	}
}

// savePass counts the saves started by one autosave pass. It holds one
// reference for the pass itself until every save has been started.
type savePass struct {
	pending atomic.Int32
	failed  atomic.Bool
	done    func()
}

func newSavePass(done func()) *savePass {
	s := &savePass{done: done}
	s.pending.Store(1)
	return s
}

func (s *savePass) add() { s.pending.Add(1) }

func (s *savePass) finish(err error) {
	if err != nil {
		s.failed.Store(true)
	}
	if s.pending.Add(-1) == 0 && !s.failed.Load() {
		s.done()
	}
}

func (t *tree) notifyChanged() {
	t.listenersMu.RLock()
	listeners := t.listeners
	t.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (t *tree) requestThumbnail(p *Playlist, v *Video) {
	if fn := t.thumbnails.Load(); fn != nil {
		(*fn)(p, v)
	}
}

func (t *tree) playlistRemoved(p *Playlist) {
	if t.onRemove != nil {
		t.onRemove(p)
	}
}

func (t *tree) wrote(paths ...string) {
	now := time.Now()
	t.writesMu.Lock()
	defer t.writesMu.Unlock()
	if t.writes == nil {
		t.writes = make(map[string]time.Time)
	}
	for _, path := range paths {
		t.writes[path] = now
	}
}

// wroteRecently reports whether path was written by the library within
// grace of now. Older records are dropped.
func (t *tree) wroteRecently(path string, now time.Time, grace time.Duration) bool {
	t.writesMu.Lock()
	defer t.writesMu.Unlock()
	for p, at := range t.writes {
		if now.Sub(at) > grace {
			delete(t.writes, p)
		}
	}
	_, ok := t.writes[path]
	return ok
}
