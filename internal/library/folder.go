package library

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"video-shelf/internal/filesystem"
)

// Folder is a directory in the playlist tree. Each *.json file in it is a
// playlist and each subdirectory not starting with ReservedPrefix is a
// child folder.
type Folder struct {
	t *tree

	mu        sync.RWMutex
	name      string
	parent    *Folder
	dir       string // root only
	playlists []*Playlist
	folders   []*Folder
	removed   bool

	// nextSave is when the next autosave of this folder's playlists is due.
	// The first save is offset randomly so folders spread their writes.
	nextSave time.Time
}

func newFolder(t *tree, name string, parent *Folder, now time.Time) *Folder {
	f := &Folder{t: t, name: name, parent: parent}
	if t.interval > 0 {
		f.nextSave = now.Add(time.Duration(rand.Int64N(int64(t.interval))))
	}
	return f
}

// scan builds the folder's children from disk and loads every playlist.
func (f *Folder) scan(ctx context.Context, now time.Time) error {
	dir := f.Path()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", dir, err)
	}

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("read folder %s: %w", dir, err)
	}

	var playlists []*Playlist
	var folders []*Folder
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ReservedPrefix) {
			continue
		}
		switch {
		case entry.IsDir():
			child := newFolder(f.t, name, f, now)
			if err := child.scan(ctx, now); err != nil {
				return err
			}
			folders = append(folders, child)
		case strings.HasSuffix(name, ".json"):
			p := newPlaylist(f.t, strings.TrimSuffix(name, ".json"), f)
			if err := p.Load(ctx); err != nil {
				f.t.log.Error("Failed to load playlist %s: %v", filepath.Join(dir, name), err)
			}
			if err := os.MkdirAll(p.ThumbnailDir(), 0o755); err != nil {
				f.t.log.Warn("Failed to create thumbnail directory for %s: %v", name, err)
			}
			playlists = append(playlists, p)
		}
	}

	f.mu.Lock()
	f.playlists = playlists
	f.folders = folders
	f.mu.Unlock()
	return nil
}

// Name returns the folder name. The root folder's name is the base name of
// the library directory.
func (f *Folder) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// Parent returns the containing folder, or nil for the root.
func (f *Folder) Parent() *Folder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parent
}

// IsRoot reports whether f is the library root.
func (f *Folder) IsRoot() bool {
	return f.Parent() == nil
}

// Removed reports whether the folder has been deleted.
func (f *Folder) Removed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.removed
}

// Path returns the absolute directory of the folder.
func (f *Folder) Path() string {
	f.mu.RLock()
	name, parent, dir := f.name, f.parent, f.dir
	f.mu.RUnlock()
	if parent == nil {
		return dir
	}
	return filepath.Join(parent.Path(), name)
}

// RelPath returns the folder location relative to the library root using
// forward slashes. The root's RelPath is "".
func (f *Folder) RelPath() string {
	f.mu.RLock()
	name, parent := f.name, f.parent
	f.mu.RUnlock()
	if parent == nil {
		return ""
	}
	if rel := parent.RelPath(); rel != "" {
		return rel + "/" + name
	}
	return name
}

// Playlists returns the playlists directly in this folder.
func (f *Folder) Playlists() []*Playlist {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Playlist, len(f.playlists))
	copy(out, f.playlists)
	return out
}

// Folders returns the direct child folders.
func (f *Folder) Folders() []*Folder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Folder, len(f.folders))
	copy(out, f.folders)
	return out
}

// PlaylistsRecursive returns every playlist in this folder and below,
// children first.
func (f *Folder) PlaylistsRecursive() []*Playlist {
	var out []*Playlist
	f.walkPlaylists(func(p *Playlist) { out = append(out, p) })
	return out
}

func (f *Folder) walkPlaylists(fn func(*Playlist)) {
	for _, child := range f.Folders() {
		child.walkPlaylists(fn)
	}
	for _, p := range f.Playlists() {
		fn(p)
	}
}

// FoldersRecursive returns every folder below this one.
func (f *Folder) FoldersRecursive() []*Folder {
	var out []*Folder
	for _, child := range f.Folders() {
		out = append(out, child)
		out = append(out, child.FoldersRecursive()...)
	}
	return out
}

// Videos returns the distinct videos of the playlists directly in f.
func (f *Folder) Videos() []*Video {
	var all []*Video
	for _, p := range f.Playlists() {
		all = append(all, p.Videos()...)
	}
	return Distinct(all)
}

// VideosRecursive returns the distinct videos of every playlist in and
// below f.
func (f *Folder) VideosRecursive() []*Video {
	all := make([]*Video, 0, f.VideoCountRecursive())
	f.walkPlaylists(func(p *Playlist) { all = append(all, p.Videos()...) })
	return Distinct(all)
}

// VideoCount returns the number of stored videos in the folder's own
// playlists, counting duplicates.
func (f *Folder) VideoCount() int {
	n := 0
	for _, p := range f.Playlists() {
		n += p.VideoCount()
	}
	return n
}

// VideoCountRecursive is VideoCount over the whole subtree.
func (f *Folder) VideoCountRecursive() int {
	n := 0
	f.walkPlaylists(func(p *Playlist) { n += p.VideoCount() })
	return n
}

// PlaylistCount returns the number of playlists directly in f.
func (f *Folder) PlaylistCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.playlists)
}

// PlaylistCountRecursive returns the number of playlists in the subtree.
func (f *Folder) PlaylistCountRecursive() int {
	n := f.PlaylistCount()
	for _, child := range f.Folders() {
		n += child.PlaylistCountRecursive()
	}
	return n
}

// Playlist returns the direct child playlist called name.
func (f *Folder) Playlist(name string) (*Playlist, bool) {
	for _, p := range f.Playlists() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Folder returns the direct child folder called name.
func (f *Folder) Folder(name string) (*Folder, bool) {
	for _, child := range f.Folders() {
		if child.Name() == name {
			return child, true
		}
	}
	return nil, false
}

// FindFolder resolves a slash separated path relative to f. The empty path
// resolves to f itself.
func (f *Folder) FindFolder(rel string) (*Folder, bool) {
	cur := f
	for _, part := range splitRel(rel) {
		next, ok := cur.Folder(part)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FindPlaylist resolves "folder/sub/playlist" relative to f.
func (f *Folder) FindPlaylist(rel string) (*Playlist, bool) {
	parts := splitRel(rel)
	if len(parts) == 0 {
		return nil, false
	}
	folder, ok := f.FindFolder(strings.Join(parts[:len(parts)-1], "/"))
	if !ok {
		return nil, false
	}
	return folder.Playlist(parts[len(parts)-1])
}

func splitRel(rel string) []string {
	var parts []string
	for _, part := range strings.Split(rel, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// CreatePlaylist creates an empty playlist file and thumbnail directory.
func (f *Folder) CreatePlaylist(ctx context.Context, name string) (*Playlist, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	p, err := f.createPlaylist(ctx, name)
	if err != nil {
		return nil, err
	}
	f.t.notifyChanged()
	return p, nil
}

func (f *Folder) createPlaylist(ctx context.Context, name string) (*Playlist, error) {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	if f.Removed() {
		return nil, ErrRemoved
	}
	dir := f.Path()
	if _, err := os.Stat(playlistFile(dir, name)); err == nil {
		return nil, ErrExists
	}
	if _, ok := f.Playlist(name); ok {
		return nil, ErrExists
	}

	p := newPlaylist(f.t, name, f)
	if err := f.t.store.SaveVideos(ctx, playlistFile(dir, name), nil); err != nil {
		return nil, err
	}
	f.t.wrote(playlistFile(dir, name))
	if err := os.MkdirAll(thumbnailDir(dir, name), 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}

	f.attachPlaylist(p)
	f.t.log.Info("Created playlist %s", p.RelPath())
	return p, nil
}

// CreateFolder creates a child directory.
func (f *Folder) CreateFolder(name string) (*Folder, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	child, err := f.createFolder(name)
	if err != nil {
		return nil, err
	}
	f.t.notifyChanged()
	return child, nil
}

func (f *Folder) createFolder(name string) (*Folder, error) {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	if f.Removed() {
		return nil, ErrRemoved
	}
	path := filepath.Join(f.Path(), name)
	if _, err := os.Stat(path); err == nil {
		return nil, ErrExists
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create folder %s: %w", path, err)
	}

	child := newFolder(f.t, name, f, time.Now())
	f.mu.Lock()
	f.folders = append(f.folders, child)
	f.mu.Unlock()
	f.t.log.Info("Created folder %s", child.RelPath())
	return child, nil
}

// RemovePlaylist moves the playlist file and its thumbnails to the trash.
func (f *Folder) RemovePlaylist(p *Playlist) error {
	if err := f.removePlaylist(p); err != nil {
		return err
	}
	f.t.playlistRemoved(p)
	f.t.notifyChanged()
	return nil
}

func (f *Folder) removePlaylist(p *Playlist) error {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	if p.Folder() != f || !f.detachPlaylist(p) {
		return ErrNotFound
	}

	p.mu.Lock()
	p.removed = true
	name := p.name
	p.mu.Unlock()

	dir := f.Path()
	if _, err := filesystem.MoveToTrash(playlistFile(dir, name), f.t.trashDir); err != nil {
		f.t.log.Warn("Failed to trash playlist %s: %v", name, err)
	}
	if _, err := filesystem.MoveToTrash(thumbnailDir(dir, name), f.t.trashDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.t.log.Warn("Failed to trash thumbnails of %s: %v", name, err)
	}
	f.t.log.Info("Removed playlist %s", name)
	return nil
}

// RemoveFolder moves a child folder and everything in it to the trash.
func (f *Folder) RemoveFolder(child *Folder) error {
	removed, err := f.removeFolder(child)
	if err != nil {
		return err
	}
	for _, p := range removed {
		f.t.playlistRemoved(p)
	}
	f.t.notifyChanged()
	return nil
}

func (f *Folder) removeFolder(child *Folder) ([]*Playlist, error) {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	if child == nil || child.Parent() != f || !f.detachFolder(child) {
		return nil, ErrNotFound
	}

	path := child.Path()
	playlists := child.PlaylistsRecursive()
	for _, p := range playlists {
		p.mu.Lock()
		p.removed = true
		p.mu.Unlock()
	}
	for _, sub := range append(child.FoldersRecursive(), child) {
		sub.mu.Lock()
		sub.removed = true
		sub.mu.Unlock()
	}

	if _, err := filesystem.MoveToTrash(path, f.t.trashDir); err != nil {
		f.t.log.Warn("Failed to trash folder %s: %v", path, err)
	}
	f.t.log.Info("Removed folder %s with %d playlists", child.Name(), len(playlists))
	return playlists, nil
}

// Rename renames the folder directory. A case-only rename is allowed even
// on case-insensitive filesystems.
func (f *Folder) Rename(newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	changed, err := f.rename(newName)
	if err != nil {
		return err
	}
	if changed {
		f.t.notifyChanged()
	}
	return nil
}

func (f *Folder) rename(newName string) (bool, error) {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	f.mu.RLock()
	name, parent, removed := f.name, f.parent, f.removed
	f.mu.RUnlock()

	switch {
	case parent == nil:
		return false, ErrInvalidMove
	case removed:
		return false, ErrRemoved
	case name == newName:
		return false, nil
	}

	parentDir := parent.Path()
	oldPath, newPath := filepath.Join(parentDir, name), filepath.Join(parentDir, newName)
	if _, err := os.Stat(newPath); err == nil && !strings.EqualFold(name, newName) {
		return false, ErrExists
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return false, fmt.Errorf("rename folder %s: %w", oldPath, err)
	}

	f.mu.Lock()
	f.name = newName
	f.mu.Unlock()
	return true, nil
}

// Move moves the folder under dest. Moving into the current parent, into
// itself or into one of its descendants is rejected.
func (f *Folder) Move(dest *Folder) error {
	if dest == nil {
		return ErrNotFound
	}
	if err := f.move(dest); err != nil {
		return err
	}
	f.t.notifyChanged()
	return nil
}

func (f *Folder) move(dest *Folder) error {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	f.mu.RLock()
	name, parent, removed := f.name, f.parent, f.removed
	f.mu.RUnlock()

	switch {
	case parent == nil:
		return ErrInvalidMove
	case removed || dest.Removed():
		return ErrRemoved
	case dest == f, dest == parent, dest.isDescendantOf(f):
		return ErrInvalidMove
	}

	oldPath := f.Path()
	newPath := filepath.Join(dest.Path(), name)
	if _, err := os.Stat(newPath); err == nil {
		return ErrExists
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("move folder %s: %w", oldPath, err)
	}

	parent.detachFolder(f)
	dest.mu.Lock()
	dest.folders = append(dest.folders, f)
	dest.mu.Unlock()
	f.mu.Lock()
	f.parent = dest
	f.mu.Unlock()
	return nil
}

func (f *Folder) isDescendantOf(ancestor *Folder) bool {
	for cur := f.Parent(); cur != nil; cur = cur.Parent() {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (f *Folder) attachPlaylist(p *Playlist) {
	f.mu.Lock()
	f.playlists = append(f.playlists, p)
	f.mu.Unlock()
}

func (f *Folder) detachPlaylist(p *Playlist) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.playlists {
		if existing == p {
			f.playlists = append(f.playlists[:i], f.playlists[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Folder) detachFolder(child *Folder) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.folders {
		if existing == child {
			f.folders = append(f.folders[:i], f.folders[i+1:]...)
			return true
		}
	}
	return false
}

// SaveAll saves every dirty playlist in the subtree and returns the joined
// errors.
func (f *Folder) SaveAll(ctx context.Context) error {
	var errs []error
	f.walkPlaylists(func(p *Playlist) {
		if err := p.Save(ctx); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Reload reloads every playlist in the subtree from the store.
func (f *Folder) Reload(ctx context.Context) error {
	var errs []error
	f.walkPlaylists(func(p *Playlist) {
		if err := p.Load(ctx); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Tick saves the dirty playlists of every folder in the subtree whose
// autosave is due at now. Saves run on the tree's background submitter.
// It returns the number of saves started. Once all of them succeed the
// library's last autosave time is updated.
func (f *Folder) Tick(ctx context.Context, now time.Time) int {
	pass := newSavePass(f.t.autosaved)
	started := f.tick(ctx, now, pass)
	if started > 0 {
		pass.finish(nil)
	}
	return started
}

func (f *Folder) tick(ctx context.Context, now time.Time, pass *savePass) int {
	started := 0

	f.mu.Lock()
	due := f.t.interval > 0 && !now.Before(f.nextSave)
	if due {
		f.nextSave = now.Add(f.t.interval)
	}
	f.mu.Unlock()

	if due {
		for _, p := range f.Playlists() {
			if !p.Dirty() {
				continue
			}
			f.t.saves.Add(1)
			pass.add()
			started++
			f.t.background(func() {
				defer f.t.saves.Done()
				pass.finish(p.Save(ctx))
			})
		}
	}

	for _, child := range f.Folders() {
		started += child.tick(ctx, now, pass)
	}
	return started
}
