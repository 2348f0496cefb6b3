package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

const (
	// DefaultAutosaveInterval is how often each folder saves its dirty
	// playlists.
	DefaultAutosaveInterval = 30 * time.Second

	// TrashDirName is the directory under the library root that receives
	// deleted playlists and folders.
	TrashDirName = ReservedPrefix + "trash"

	autosaveCheckInterval = time.Second
)

// Options configures a Library.
type Options struct {
	// Store persists playlists. Defaults to a FileStore.
	Store VideoStore
	// AutosaveInterval defaults to DefaultAutosaveInterval. A negative value
	// disables autosave.
	AutosaveInterval time.Duration
	// Background runs saves and thumbnail deletions. When nil, or when it
	// rejects a job, the job runs on its own goroutine.
	Background Submitter
	// Thumbnails is called for stored videos that still need a thumbnail,
	// including those found while loading.
	Thumbnails ThumbnailFunc
	// OnAutosave is called after an autosave pass or a Flush saved every
	// playlist it tried to. It may run on a background goroutine.
	OnAutosave func(time.Time)
}

// Library is the in-memory playlist tree rooted at one directory together
// with the user's playlist selection.
type Library struct {
	t    *tree
	root *Folder
	dir  string

	selMu    sync.RWMutex
	selected []*Playlist
}

// Open scans dir, creating it if needed, and loads every playlist.
func Open(ctx context.Context, dir string, opts Options) (*Library, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve library directory: %w", err)
	}

	if opts.Store == nil {
		opts.Store = NewFileStore()
	}
	interval := opts.AutosaveInterval
	if interval == 0 {
		interval = DefaultAutosaveInterval
	}
	if interval < 0 {
		interval = 0
	}

	t := &tree{
		store:    opts.Store,
		trashDir: filepath.Join(absDir, TrashDirName),
		interval: interval,
		submit:   opts.Background,
		log:      logging.For("library"),

		onAutosave: opts.OnAutosave,
	}
	if opts.Thumbnails != nil {
		fn := opts.Thumbnails
		t.thumbnails.Store(&fn)
	}

	l := &Library{t: t, dir: absDir}
	t.onRemove = l.Deselect

	start := time.Now()
	root := newFolder(t, filepath.Base(absDir), nil, start)
	root.dir = absDir
	if err := root.scan(ctx, start); err != nil {
		return nil, err
	}
	l.root = root

	t.log.Info("Loaded %d playlists in %d folders from %s in %v",
		root.PlaylistCountRecursive(), len(root.FoldersRecursive()), absDir, time.Since(start))
	return l, nil
}

// Root returns the root folder.
func (l *Library) Root() *Folder { return l.root }

// Dir returns the absolute library directory.
func (l *Library) Dir() string { return l.dir }

// OnChange registers fn to be called after every mutation of the tree, a
// playlist or the selection. fn must not block.
func (l *Library) OnChange(fn func()) {
	l.t.listenersMu.Lock()
	defer l.t.listenersMu.Unlock()
	l.t.listeners = append(slices.Clip(l.t.listeners), fn)
}

// SetThumbnailFunc replaces the thumbnail request hook.
func (l *Library) SetThumbnailFunc(fn ThumbnailFunc) {
	if fn == nil {
		l.t.thumbnails.Store(nil)
		return
	}
	l.t.thumbnails.Store(&fn)
}

// FindPlaylist resolves a playlist by its path relative to the root.
func (l *Library) FindPlaylist(rel string) (*Playlist, error) {
	if p, ok := l.root.FindPlaylist(rel); ok {
		return p, nil
	}
	return nil, fmt.Errorf("playlist %q: %w", rel, ErrNotFound)
}

// FindFolder resolves a folder by its path relative to the root. The empty
// path is the root.
func (l *Library) FindFolder(rel string) (*Folder, error) {
	if f, ok := l.root.FindFolder(rel); ok {
		return f, nil
	}
	return nil, fmt.Errorf("folder %q: %w", rel, ErrNotFound)
}

// Select adds p to the selection. Selecting an already selected playlist
// changes nothing.
func (l *Library) Select(p *Playlist) {
	if p == nil || p.Removed() {
		return
	}
	l.selMu.Lock()
	if slices.Contains(l.selected, p) {
		l.selMu.Unlock()
		return
	}
	l.selected = append(l.selected, p)
	l.selMu.Unlock()
	l.t.notifyChanged()
}

// Deselect removes p from the selection.
func (l *Library) Deselect(p *Playlist) {
	l.selMu.Lock()
	idx := slices.Index(l.selected, p)
	if idx < 0 {
		l.selMu.Unlock()
		return
	}
	l.selected = slices.Delete(l.selected, idx, idx+1)
	l.selMu.Unlock()
	l.t.notifyChanged()
}

// SetSelection replaces the selection, dropping duplicates and removed
// playlists while keeping order.
func (l *Library) SetSelection(playlists []*Playlist) {
	next := make([]*Playlist, 0, len(playlists))
	for _, p := range playlists {
		if p != nil && !p.Removed() && !slices.Contains(next, p) {
			next = append(next, p)
		}
	}
	l.selMu.Lock()
	l.selected = next
	l.selMu.Unlock()
	l.t.notifyChanged()
}

// ClearSelection deselects every playlist.
func (l *Library) ClearSelection() {
	l.SetSelection(nil)
}

// Selected returns the selected playlists in selection order.
func (l *Library) Selected() []*Playlist {
	l.selMu.RLock()
	defer l.selMu.RUnlock()
	return slices.Clone(l.selected)
}

// IsSelected reports whether p is selected.
func (l *Library) IsSelected(p *Playlist) bool {
	l.selMu.RLock()
	defer l.selMu.RUnlock()
	return slices.Contains(l.selected, p)
}

// AnySelected reports whether at least one playlist is selected.
func (l *Library) AnySelected() bool {
	l.selMu.RLock()
	defer l.selMu.RUnlock()
	return len(l.selected) > 0
}

// AllVideos returns the distinct videos of every playlist.
func (l *Library) AllVideos() []*Video {
	return l.root.VideosRecursive()
}

// SelectedVideos returns the distinct videos of the selected playlists,
// most recently selected playlist first.
func (l *Library) SelectedVideos() []*Video {
	selected := l.Selected()
	n := 0
	for _, p := range selected {
		n += p.VideoCount()
	}
	all := make([]*Video, 0, n)
	for i := len(selected) - 1; i >= 0; i-- {
		all = append(all, selected[i].Videos()...)
	}
	return Distinct(all)
}

// Uploaders returns distinct uploader names containing query, ignoring
// case. Names where the match starts earlier come first; ties are broken
// alphabetically. A limit of 0 returns every match.
func (l *Library) Uploaders(query string, limit int) []string {
	return MatchUploaders(l.AllVideos(), query, limit)
}

// MatchUploaders is the pure part of Library.Uploaders.
func MatchUploaders(videos []*Video, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	type match struct {
		name string
		pos  int
	}
	seen := make(map[string]struct{})
	var matches []match
	for _, v := range videos {
		name := v.UploaderName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		pos := strings.Index(strings.ToLower(name), q)
		if pos < 0 {
			continue
		}
		matches = append(matches, match{name: name, pos: pos})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return strings.ToLower(matches[i].name) < strings.ToLower(matches[j].name)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// Stats summarises the library.
type Stats struct {
	Folders   int `json:"folders"`
	Playlists int `json:"playlists"`
	Videos    int `json:"videos"`
	Stored    int `json:"stored"`
	Selected  int `json:"selected"`
	Dirty     int `json:"dirty"`
}

// Stats counts folders below the root, playlists, distinct and stored
// videos, selected and unsaved playlists.
func (l *Library) Stats() Stats {
	playlists := l.root.PlaylistsRecursive()
	s := Stats{
		Folders:   len(l.root.FoldersRecursive()),
		Playlists: len(playlists),
		Videos:    len(l.AllVideos()),
	}
	for _, p := range playlists {
		s.Stored += p.VideoCount()
		if p.Dirty() {
			s.Dirty++
		}
	}
	l.selMu.RLock()
	s.Selected = len(l.selected)
	l.selMu.RUnlock()
	return s
}

// GetStats implements metrics.StatsProvider.
func (l *Library) GetStats() metrics.Stats {
	s := l.Stats()
	return metrics.Stats{
		Folders:   s.Folders,
		Playlists: s.Playlists,
		Videos:    s.Videos,
		Stored:    s.Stored,
		Selected:  s.Selected,
		Dirty:     s.Dirty,
	}
}

// Tick runs one autosave pass at now and returns the number of saves
// started.
func (l *Library) Tick(ctx context.Context, now time.Time) int {
	return l.root.Tick(ctx, now)
}

// Run drives autosave until ctx is done.
func (l *Library) Run(ctx context.Context) {
	if l.t.interval <= 0 {
		return
	}

	ticker := time.NewTicker(autosaveCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Tick(ctx, now); n > 0 {
				l.t.log.Debug("Autosave started %d playlist saves", n)
			}
		}
	}
}

// Flush waits for in-flight autosaves and then saves every dirty playlist.
func (l *Library) Flush(ctx context.Context) error {
	l.t.saves.Wait()
	if err := l.root.SaveAll(ctx); err != nil {
		return err
	}
	l.t.autosaved()
	return nil
}

// LastAutosave returns when an autosave pass or Flush last completed, or
// the zero time if none has since Open.
func (l *Library) LastAutosave() time.Time {
	n := l.t.lastAutosave.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Close flushes the library. Failed saves are reported; their playlists
// remain dirty.
func (l *Library) Close(ctx context.Context) error {
	err := l.Flush(ctx)
	if err != nil {
		l.t.log.Error("Failed to save library on close: %v", err)
		return fmt.Errorf("close library: %w", err)
	}
	l.t.log.Info("Library saved")
	return nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
