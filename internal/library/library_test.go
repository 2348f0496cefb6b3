package library

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestSelection(t *testing.T) {
	lib, _ := openTestLibrary(t, Options{})
	a := mustCreatePlaylist(t, lib.Root(), "A")
	b := mustCreatePlaylist(t, lib.Root(), "B")

	if lib.AnySelected() {
		t.Fatal("new library has a selection")
	}
	lib.Select(a)
	lib.Select(b)
	lib.Select(a)
	if got := lib.Selected(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Selected() = %v, want [A B]", got)
	}

	lib.Deselect(a)
	if lib.IsSelected(a) || !lib.IsSelected(b) {
		t.Error("Deselect() removed the wrong playlist")
	}

	lib.SetSelection([]*Playlist{b, a, b, nil})
	if got := lib.Selected(); len(got) != 2 || got[0] != b || got[1] != a {
		t.Errorf("SetSelection() kept %v, want [B A]", got)
	}

	lib.ClearSelection()
	if lib.AnySelected() {
		t.Error("ClearSelection() left playlists selected")
	}
}

func TestSelectedVideosMostRecentFirst(t *testing.T) {
	lib, _ := openTestLibrary(t, Options{})
	a := mustCreatePlaylist(t, lib.Root(), "A")
	b := mustCreatePlaylist(t, lib.Root(), "B")

	a.AddVideo(NewVideo("https://x/1", "One"))
	a.AddVideo(NewVideo("https://x/shared", "Shared"))
	b.AddVideo(NewVideo("https://x/shared", "Shared"))
	b.AddVideo(NewVideo("https://x/2", "Two"))

	lib.Select(a)
	lib.Select(b)

	var urls []string
	for _, v := range lib.SelectedVideos() {
		urls = append(urls, v.URL())
	}
	want := []string{"https://x/shared", "https://x/2", "https://x/1"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("SelectedVideos() = %v, want %v", urls, want)
	}
}

func TestMatchUploaders(t *testing.T) {
	videos := []*Video{
		{UploaderName: "The Band"},
		{UploaderName: "band camp"},
		{UploaderName: "Bandit"},
		{UploaderName: "Bandit"},
		{UploaderName: "Orchestra"},
		{UploaderName: ""},
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"match position then name", "band", 0, []string{"band camp", "Bandit", "The Band"}},
		{"limit", "band", 2, []string{"band camp", "Bandit"}},
		{"case insensitive", "ORCH", 0, []string{"Orchestra"}},
		{"empty query matches all", "", 0, []string{"band camp", "Bandit", "Orchestra", "The Band"}},
		{"no match", "zzz", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchUploaders(videos, tt.query, tt.limit)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchUploaders(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestOnChangeFires(t *testing.T) {
	lib, _ := openTestLibrary(t, Options{})
	var calls atomic.Int32
	lib.OnChange(func() { calls.Add(1) })

	p := mustCreatePlaylist(t, lib.Root(), "P")
	afterCreate := calls.Load()
	if afterCreate == 0 {
		t.Fatal("CreatePlaylist() did not notify")
	}

	p.AddVideo(NewVideo("https://x/1", "One"))
	if calls.Load() <= afterCreate {
		t.Error("AddVideo() did not notify")
	}

	before := calls.Load()
	lib.Select(p)
	if calls.Load() <= before {
		t.Error("Select() did not notify")
	}

	before = calls.Load()
	p.AddVideo(NewVideo("https://x/1", "Duplicate"))
	if calls.Load() != before {
		t.Error("rejected AddVideo() notified")
	}
}

func TestThumbnailRequests(t *testing.T) {
	var requested []string
	lib, _ := openTestLibrary(t, Options{
		Thumbnails: func(p *Playlist, v *Video) { requested = append(requested, v.URL()) },
	})
	p := mustCreatePlaylist(t, lib.Root(), "P")

	withSource := NewVideo("https://x/1", "One")
	withSource.ThumbnailURL = "https://img/1.jpg"
	p.AddVideo(withSource)
	p.AddVideo(NewVideo("https://x/2", "No source"))

	if !reflect.DeepEqual(requested, []string{"https://x/1"}) {
		t.Errorf("thumbnail requests = %v", requested)
	}
}

func TestStats(t *testing.T) {
	lib, _ := openTestLibrary(t, Options{})
	sub := mustCreateFolder(t, lib.Root(), "Sub")
	a := mustCreatePlaylist(t, lib.Root(), "A")
	b := mustCreatePlaylist(t, sub, "B")
	a.AddVideo(NewVideo("https://x/1", "One"))
	b.AddVideo(NewVideo("https://x/1", "One"))
	b.AddVideo(NewVideo("https://x/2", "Two"))
	lib.Select(b)

	got := lib.Stats()
	want := Stats{Folders: 1, Playlists: 2, Videos: 2, Stored: 3, Selected: 1, Dirty: 2}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	m := lib.GetStats()
	if m.Folders != 1 || m.Playlists != 2 || m.Videos != 2 || m.Selected != 1 {
		t.Errorf("GetStats() = %+v", m)
	}
}

func TestCloseSavesDirtyPlaylists(t *testing.T) {
	store := &flakyStore{FileStore: NewFileStore()}
	lib, _ := openTestLibrary(t, Options{Store: store, AutosaveInterval: -1})
	p := mustCreatePlaylist(t, lib.Root(), "P")
	p.AddVideo(NewVideo("https://x/1", "One"))

	store.failing.Store(true)
	if err := lib.Close(context.Background()); err == nil {
		t.Error("Close() error = nil with failing store")
	}
	if !p.Dirty() {
		t.Error("failed close lost the dirty flag")
	}

	store.failing.Store(false)
	if err := lib.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if p.Dirty() {
		t.Error("playlist dirty after Close()")
	}
}
