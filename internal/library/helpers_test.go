package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

// flakyStore wraps a FileStore and fails saves while failing is set.
type flakyStore struct {
	*FileStore
	failing atomic.Bool
	mu      sync.Mutex
	saved   []string
}

func (s *flakyStore) SaveVideos(ctx context.Context, id string, videos []*Video) error {
	if s.failing.Load() {
		return errors.New("disk unavailable")
	}
	s.mu.Lock()
	s.saved = append(s.saved, id)
	s.mu.Unlock()
	return s.FileStore.SaveVideos(ctx, id, videos)
}

func (s *flakyStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// inlineSubmitter runs jobs on the calling goroutine.
type inlineSubmitter struct{}

func (inlineSubmitter) TrySubmit(job func()) bool {
	job()
	return true
}

func openTestLibrary(t *testing.T, opts Options) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	if opts.Background == nil {
		opts.Background = inlineSubmitter{}
	}
	lib, err := Open(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return lib, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mustCreatePlaylist(t *testing.T, f *Folder, name string) *Playlist {
	t.Helper()
	p, err := f.CreatePlaylist(context.Background(), name)
	if err != nil {
		t.Fatalf("CreatePlaylist(%q) error = %v", name, err)
	}
	return p
}

func mustCreateFolder(t *testing.T, f *Folder, name string) *Folder {
	t.Helper()
	child, err := f.CreateFolder(name)
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return child
}
