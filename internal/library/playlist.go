package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"video-shelf/internal/collection"
	"video-shelf/internal/metrics"
)

// Playlist is a named, persisted set of distinct videos living in a folder.
// Its file is <folder>/<name>.json and its thumbnails are kept in
// <folder>/.<name> Thumbnails.
type Playlist struct {
	t *tree

	mu      sync.RWMutex
	name    string
	folder  *Folder
	videos  *collection.List[*Video]
	dirty   bool
	removed bool

	// saveMu allows one in-flight save per playlist.
	saveMu sync.Mutex
}

func newPlaylist(t *tree, name string, folder *Folder) *Playlist {
	return &Playlist{
		t:      t,
		name:   name,
		folder: folder,
		videos: collection.New(func(a, b *Video) bool { return a.Equal(b) }),
	}
}

func playlistFile(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

func thumbnailDir(dir, name string) string {
	return filepath.Join(dir, ReservedPrefix+name+" Thumbnails")
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Folder returns the folder containing the playlist.
func (p *Playlist) Folder() *Folder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.folder
}

// Path returns the playlist file path.
func (p *Playlist) Path() string {
	p.mu.RLock()
	name, folder := p.name, p.folder
	p.mu.RUnlock()
	return playlistFile(folder.Path(), name)
}

// ThumbnailDir returns the directory holding the playlist's thumbnails.
func (p *Playlist) ThumbnailDir() string {
	p.mu.RLock()
	name, folder := p.name, p.folder
	p.mu.RUnlock()
	return thumbnailDir(folder.Path(), name)
}

// RelPath returns the playlist location relative to the library root,
// using forward slashes and no extension (e.g. "Music/Live").
func (p *Playlist) RelPath() string {
	p.mu.RLock()
	name, folder := p.name, p.folder
	p.mu.RUnlock()
	if rel := folder.RelPath(); rel != "" {
		return rel + "/" + name
	}
	return name
}

// Dirty reports whether the playlist has unsaved changes.
func (p *Playlist) Dirty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dirty
}

// Removed reports whether the playlist has been deleted from the tree.
func (p *Playlist) Removed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.removed
}

// VideoCount returns the number of videos.
func (p *Playlist) VideoCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.videos.Len()
}

// Videos returns a snapshot of the videos in storage order.
func (p *Playlist) Videos() []*Video {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.videos.Snapshot()
}

// ContainsVideo reports whether a video with the same URL is stored.
func (p *Playlist) ContainsVideo(v *Video) bool {
	if v == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.videos.Contains(v)
}

// ContainsURL reports whether a video with url is stored.
func (p *Playlist) ContainsURL(url string) bool {
	return p.ContainsVideo(&Video{url: url, hash: HashURL(url)})
}

// AddVideo stores v unless it is invalid or already present. A video owned
// by another playlist is cloned so that every playlist owns its elements.
// It reports whether the playlist changed.
func (p *Playlist) AddVideo(v *Video) bool {
	if !v.Valid() {
		return false
	}

	p.mu.Lock()
	if p.removed || p.videos.Contains(v) {
		p.mu.Unlock()
		return false
	}
	if owner := v.Playlist(); owner != nil && owner != p {
		v = v.Clone()
	}
	v.owner.Store(p)
	p.videos.Add(v)
	p.dirty = true
	p.mu.Unlock()

	p.t.notifyChanged()
	if v.ThumbnailURL != "" && !v.HasThumbnail() {
		p.t.requestThumbnail(p, v)
	}
	return true
}

// RemoveVideo removes the video with v's URL and deletes its cached
// thumbnail in the background. It reports whether the playlist changed.
func (p *Playlist) RemoveVideo(v *Video) bool {
	if v == nil {
		return false
	}

	p.mu.Lock()
	removed, ok := p.videos.Take(v)
	if ok {
		p.dirty = true
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	p.forget(removed)
	return true
}

// RemoveURL removes the video with url. It reports whether the playlist
// changed.
func (p *Playlist) RemoveURL(url string) bool {
	hash := HashURL(url)

	p.mu.Lock()
	var removed *Video
	for i := p.videos.Len() - 1; i >= 0; i-- {
		if v := p.videos.At(i); v.hash == hash && v.url == url {
			removed = p.videos.RemoveAt(i)
			p.dirty = true
			break
		}
	}
	p.mu.Unlock()

	if removed == nil {
		return false
	}
	p.forget(removed)
	return true
}

func (p *Playlist) forget(v *Video) {
	path := v.ThumbnailPath()
	v.owner.CompareAndSwap(p, nil)
	if path != "" {
		p.t.background(func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				p.t.log.Warn("Failed to delete thumbnail %s: %v", path, err)
			}
		})
	}
	p.t.notifyChanged()
}

// MarkDirty flags the playlist for the next save.
func (p *Playlist) MarkDirty() {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()
}

// Load replaces the contents with the persisted state. Invalid and duplicate
// entries are dropped.
func (p *Playlist) Load(ctx context.Context) error {
	path := p.Path()
	loaded, err := p.t.store.LoadVideos(ctx, path)
	if err != nil {
		return err
	}

	kept := make([]*Video, 0, len(loaded))
	seen := make(map[videoKey]struct{}, len(loaded))
	for _, v := range loaded {
		if !v.Valid() {
			continue
		}
		if _, dup := seen[v.key()]; dup {
			continue
		}
		seen[v.key()] = struct{}{}
		v.owner.Store(p)
		kept = append(kept, v)
	}
	if len(kept) != len(loaded) {
		p.t.log.Warn("Playlist %s: dropped %d invalid or duplicate entries", path, len(loaded)-len(kept))
	}

	p.mu.Lock()
	p.videos.Reset(kept)
	p.dirty = len(kept) != len(loaded)
	p.mu.Unlock()

	for _, v := range kept {
		if v.ThumbnailURL != "" && !v.HasThumbnail() {
			p.t.requestThumbnail(p, v)
		}
	}
	p.t.notifyChanged()
	return nil
}

// Save writes the playlist if it has unsaved changes. On failure the
// playlist stays dirty so the next autosave retries.
func (p *Playlist) Save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	// Structural changes (rename, move, delete) wait for saves to finish.
	p.t.mu.RLock()
	defer p.t.mu.RUnlock()

	p.mu.Lock()
	if !p.dirty || p.removed {
		p.mu.Unlock()
		return nil
	}
	p.dirty = false
	snapshot := p.videos.Snapshot()
	name, folder := p.name, p.folder
	p.mu.Unlock()

	path := playlistFile(folder.Path(), name)
	start := time.Now()
	err := p.t.store.SaveVideos(ctx, path, snapshot)
	metrics.LibrarySaveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		metrics.LibrarySavesTotal.WithLabelValues("error").Inc()
		p.t.log.Warn("Failed to save playlist %s: %v", path, err)
		return err
	}

	p.t.wrote(path)
	metrics.LibrarySavesTotal.WithLabelValues("success").Inc()
	p.t.log.Debug("Saved playlist %s (%d videos)", path, len(snapshot))
	return nil
}

// Rename renames the playlist file and its thumbnail directory.
// Renaming to the current name is a no-op.
func (p *Playlist) Rename(newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}

	p.t.mu.Lock()
	p.mu.Lock()
	if p.removed {
		p.mu.Unlock()
		p.t.mu.Unlock()
		return ErrRemoved
	}
	if p.name == newName {
		p.mu.Unlock()
		p.t.mu.Unlock()
		return nil
	}

	dir := p.folder.Path()
	oldFile, newFile := playlistFile(dir, p.name), playlistFile(dir, newName)
	caseOnly := strings.EqualFold(p.name, newName)
	if _, err := os.Stat(newFile); err == nil && !caseOnly {
		p.mu.Unlock()
		p.t.mu.Unlock()
		return ErrExists
	}

	err := renamePlaylistFiles(dir, p.name, dir, newName)
	if err == nil {
		p.t.wrote(oldFile, newFile)
		p.name = newName
	}
	p.mu.Unlock()
	p.t.mu.Unlock()

	if err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldFile, newFile, err)
	}
	p.t.notifyChanged()
	return nil
}

// Move moves the playlist into dest.
func (p *Playlist) Move(dest *Folder) error {
	if dest == nil {
		return ErrNotFound
	}
	if err := p.move(dest); err != nil {
		return err
	}
	p.t.notifyChanged()
	return nil
}

func (p *Playlist) move(dest *Folder) error {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()

	p.mu.RLock()
	removed, name, src := p.removed, p.name, p.folder
	p.mu.RUnlock()

	switch {
	case removed || dest.Removed():
		return ErrRemoved
	case src == dest:
		return ErrInvalidMove
	}

	srcDir, destDir := src.Path(), dest.Path()
	if _, err := os.Stat(playlistFile(destDir, name)); err == nil {
		return ErrExists
	}
	if err := renamePlaylistFiles(srcDir, name, destDir, name); err != nil {
		return fmt.Errorf("move playlist %s: %w", name, err)
	}
	p.t.wrote(playlistFile(srcDir, name), playlistFile(destDir, name))

	src.detachPlaylist(p)
	dest.attachPlaylist(p)
	p.mu.Lock()
	p.folder = dest
	p.mu.Unlock()
	return nil
}

// renamePlaylistFiles moves the playlist file and its thumbnail directory.
// A missing thumbnail directory is recreated at the destination.
func renamePlaylistFiles(srcDir, srcName, destDir, destName string) error {
	if err := os.Rename(playlistFile(srcDir, srcName), playlistFile(destDir, destName)); err != nil {
		return err
	}
	oldThumbs, newThumbs := thumbnailDir(srcDir, srcName), thumbnailDir(destDir, destName)
	if err := os.Rename(oldThumbs, newThumbs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(newThumbs, 0o755)
		}
		return err
	}
	return nil
}
