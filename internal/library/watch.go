package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"video-shelf/internal/filesystem"
	"video-shelf/internal/metrics"
)

const (
	// watchDebounce collapses the bursts of events editors produce for a
	// single save.
	watchDebounce = 250 * time.Millisecond

	// ownWriteGrace is how long after a library write events for the same
	// file are ignored.
	ownWriteGrace = 2 * time.Second
)

// Watch follows changes made to the library directory by other programs
// until ctx is done. A playlist file rewritten outside the library is
// reloaded unless it has unsaved changes; new playlist files and folders
// are added to the tree. Deletions are picked up on the next Open.
func (l *Library) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.LibraryWatcherErrors.Inc()
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			l.t.log.Error("failed to close file watcher: %v", err)
		}
	}()

	w := &watcher{lib: l, fs: fsw, pending: make(map[string]*time.Timer)}
	count := w.addTree(l.dir)
	metrics.LibraryWatchedDirectories.Set(float64(count))
	l.t.log.Debug("Library watcher started, watching %d directories", count)

	w.run(ctx)
	w.stopTimers()
	return nil
}

type watcher struct {
	lib *Library
	fs  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// addTree watches dir and every non-reserved directory below it.
func (w *watcher) addTree(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ReservedPrefix) {
			return filepath.SkipDir
		}
		if addErr := w.fs.Add(path); addErr != nil {
			w.lib.t.log.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.LibraryWatcherErrors.Inc()
		} else {
			count++
		}
		return nil
	})
	if err != nil {
		w.lib.t.log.Error("failed to walk library directory for watcher: %v", err)
		metrics.LibraryWatcherErrors.Inc()
	}
	return count
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.lib.t.log.Error("Watcher error: %v", err)
			metrics.LibraryWatcherErrors.Inc()
		}
	}
}

func (w *watcher) handle(ctx context.Context, event fsnotify.Event) {
	// Thumbnail directories, the trash and temporary save files.
	if strings.HasPrefix(filepath.Base(event.Name), ReservedPrefix) {
		return
	}
	metrics.LibraryWatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			added := w.addTree(event.Name)
			metrics.LibraryWatchedDirectories.Add(float64(added))
			w.schedule(ctx, event.Name)
			return
		}
	}
	if strings.HasSuffix(event.Name, ".json") {
		w.schedule(ctx, event.Name)
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "unknown"
	}
}

// schedule applies path once no new event arrived for watchDebounce.
func (w *watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(watchDebounce)
		return
	}
	w.pending[path] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.lib.applyExternal(ctx, path)
		}
	})
}

func (w *watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// applyExternal brings the tree in line with path after an outside change.
func (l *Library) applyExternal(ctx context.Context, path string) {
	rel, err := filepath.Rel(l.dir, filepath.Dir(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	if rel == "." {
		rel = ""
	}
	parent, ok := l.root.FindFolder(filepath.ToSlash(rel))
	if !ok {
		return
	}
	base := filepath.Base(path)

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return
	}

	if info.IsDir() {
		if _, known := parent.Folder(base); known {
			return
		}
		child, err := parent.adoptFolder(ctx, base)
		if err != nil {
			l.t.log.Warn("Failed to add folder %s: %v", path, err)
			return
		}
		metrics.LibraryExternalChangesTotal.WithLabelValues("folder").Inc()
		l.t.log.Info("Added folder %s created outside the library", child.RelPath())
		l.t.notifyChanged()
		return
	}

	name := strings.TrimSuffix(base, ".json")
	if name == base || ValidateName(name) != nil {
		return
	}

	if p, known := parent.Playlist(name); known {
		if l.t.wroteRecently(path, time.Now(), ownWriteGrace) {
			return
		}
		if p.Dirty() {
			l.t.log.Warn("Playlist %s changed on disk but has unsaved changes; keeping the library copy", p.RelPath())
			return
		}
		if err := p.Load(ctx); err != nil {
			l.t.log.Warn("Failed to reload playlist %s: %v", p.RelPath(), err)
			return
		}
		metrics.LibraryExternalChangesTotal.WithLabelValues("reload").Inc()
		l.t.log.Info("Reloaded playlist %s after an outside change", p.RelPath())
		return
	}

	p, err := parent.adoptPlaylist(ctx, name)
	if err != nil {
		l.t.log.Warn("Failed to add playlist %s: %v", path, err)
		return
	}
	metrics.LibraryExternalChangesTotal.WithLabelValues("playlist").Inc()
	l.t.log.Info("Added playlist %s created outside the library", p.RelPath())
	l.t.notifyChanged()
}

// adoptPlaylist adds an existing playlist file to the folder. A file that
// fails to load is added empty, as during Open.
func (f *Folder) adoptPlaylist(ctx context.Context, name string) (*Playlist, error) {
	f.t.mu.Lock()
	if f.Removed() {
		f.t.mu.Unlock()
		return nil, ErrRemoved
	}
	if _, ok := f.Playlist(name); ok {
		f.t.mu.Unlock()
		return nil, ErrExists
	}
	p := newPlaylist(f.t, name, f)
	if err := os.MkdirAll(p.ThumbnailDir(), 0o755); err != nil {
		f.t.log.Warn("Failed to create thumbnail directory for %s: %v", name, err)
	}
	f.attachPlaylist(p)
	f.t.mu.Unlock()

	// Load notifies listeners and requests thumbnails, so it runs unlocked.
	if err := p.Load(ctx); err != nil {
		f.t.log.Error("Failed to load playlist %s: %v", p.Path(), err)
	}
	return p, nil
}

// adoptFolder adds an existing directory, and everything in it, to the
// folder.
func (f *Folder) adoptFolder(ctx context.Context, name string) (*Folder, error) {
	child := newFolder(f.t, name, f, time.Now())
	if err := child.scan(ctx, time.Now()); err != nil {
		return nil, err
	}

	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	if f.Removed() {
		return nil, ErrRemoved
	}
	if _, ok := f.Folder(name); ok {
		return nil, ErrExists
	}
	f.mu.Lock()
	f.folders = append(f.folders, child)
	f.mu.Unlock()
	return child, nil
}
