package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"video-shelf/internal/library"
)

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, link string) (*library.Video, error) {
	title, ok := f[link]
	if !ok {
		return nil, library.ErrUnsupportedLink
	}
	return library.NewVideo(link, title), nil
}

type fakeClipboard struct {
	mu      sync.Mutex
	written []string
}

func (c *fakeClipboard) ReadAll() (string, error) { return "", nil }

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, text)
	return nil
}

// newTestLibrary writes a library with Music/Live holding two videos and
// an empty Inbox playlist.
func newTestLibrary(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	lib, err := library.Open(ctx, dir, library.Options{AutosaveInterval: -1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	music, err := lib.Root().CreateFolder("Music")
	if err != nil {
		t.Fatal(err)
	}
	live, err := music.CreatePlaylist(ctx, "Live")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Root().CreatePlaylist(ctx, "Inbox"); err != nil {
		t.Fatal(err)
	}

	night := library.NewVideo("https://example.com/v/1", "Night set")
	night.UploaderName = "Ann"
	night.Duration = 95 * time.Second
	morning := library.NewVideo("https://example.com/v/2", "Morning talk")
	morning.UploaderName = "Bob"
	live.AddVideo(night)
	live.AddVideo(morning)

	if err := lib.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return dir
}

type runResult struct {
	out, errOut string
}

func run(t *testing.T, dir string, fetcher library.MetadataFetcher, clip Clipboard, stdin string, args ...string) (runResult, error) {
	t.Helper()
	root := NewRootCommand(fetcher, clip)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--library", dir, "--database", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return runResult{out: out.String(), errOut: errOut.String()}, err
}

func reopen(t *testing.T, dir string) *library.Library {
	t.Helper()
	lib, err := library.Open(context.Background(), dir, library.Options{AutosaveInterval: -1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return lib
}

func TestTreeCommand(t *testing.T) {
	dir := newTestLibrary(t)
	res, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", "tree")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	for _, want := range []string{"Music/\n", "Live (2)\n", "Inbox (0)\n"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("tree output missing %q:\n%s", want, res.out)
		}
	}
}

func TestSearchCommand(t *testing.T) {
	dir := newTestLibrary(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "uploader filter",
			args:    []string{"search", "--uploader", "ann"},
			want:    []string{"Night set", "1:35", "1 of 1 matches (2 candidates)"},
			notWant: []string{"Morning talk"},
		},
		{
			name:    "limit",
			args:    []string{"search", "--sort", "title", "--limit", "1"},
			want:    []string{"Morning talk", "1 of 2 matches"},
			notWant: []string{"Night set"},
		},
		{
			name: "playlist selection",
			args: []string{"search", "--playlist", "Inbox"},
			want: []string{"0 of 0 matches (0 candidates)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", tt.args...)
			if err != nil {
				t.Fatalf("search error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(res.out, want) {
					t.Errorf("output missing %q:\n%s", want, res.out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(res.out, notWant) {
					t.Errorf("output contains %q:\n%s", notWant, res.out)
				}
			}
		})
	}
}

func TestSearchCommandRejectsUnknownInput(t *testing.T) {
	dir := newTestLibrary(t)
	for _, args := range [][]string{
		{"search", "--sort", "rating"},
		{"search", "--playlist", "Missing"},
	} {
		if _, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestSearchCommandCopy(t *testing.T) {
	dir := newTestLibrary(t)
	clip := &fakeClipboard{}
	res, err := run(t, dir, fakeFetcher{}, clip, "", "search", "--sort", "title", "--copy")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if len(clip.written) != 1 {
		t.Fatalf("clipboard writes = %d, want 1", len(clip.written))
	}
	want := "https://example.com/v/2\nhttps://example.com/v/1"
	if clip.written[0] != want {
		t.Errorf("clipboard = %q, want %q", clip.written[0], want)
	}
	if !strings.Contains(res.errOut, "Copied 2 URLs") {
		t.Errorf("stderr = %q", res.errOut)
	}
}

func TestAddCommand(t *testing.T) {
	dir := newTestLibrary(t)
	fetcher := fakeFetcher{
		"https://example.com/v/1": "Night set",
		"https://example.com/v/3": "Rehearsal",
	}
	stdin := "have a look: https://example.com/v/3, and https://unknown.example/x"

	res, err := run(t, dir, fetcher, &fakeClipboard{}, stdin, "add", "Inbox", "https://example.com/v/1", "-")
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	if !strings.Contains(res.out, "Inbox: 2 added, 0 skipped, 1 failed") {
		t.Errorf("add output:\n%s", res.out)
	}

	lib := reopen(t, dir)
	inbox, err := lib.FindPlaylist("Inbox")
	if err != nil {
		t.Fatal(err)
	}
	if got := inbox.VideoCount(); got != 2 {
		t.Errorf("Inbox videos = %d, want 2", got)
	}
	if !inbox.ContainsURL("https://example.com/v/3") {
		t.Error("Inbox missing link read from stdin")
	}
}

func TestAddCommandErrors(t *testing.T) {
	dir := newTestLibrary(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown playlist", []string{"add", "Missing", "https://example.com/v/3"}},
		{"nothing added", []string{"add", "Inbox", "https://unknown.example/x"}},
		{"empty stdin", []string{"add", "Inbox", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStatsCommand(t *testing.T) {
	dir := newTestLibrary(t)
	res, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"Folders:   1", "Playlists: 2"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("stats output missing %q:\n%s", want, res.out)
		}
	}

	_, err = run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", "stats", "--history", "3")
	if err == nil || !strings.Contains(err.Error(), "settings database") {
		t.Errorf("stats --history without database error = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"longer title", 6, "longe…"},
		{"ünïcode", 4, "ünï…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{5 * time.Second, "0:05"},
		{95 * time.Second, "1:35"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClipboardWatcher(t *testing.T) {
	reads := []string{"before", "before", "https://a.example", "https://a.example", "", "https://b.example"}
	var mu sync.Mutex
	next := 0
	read := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(reads) {
			return reads[len(reads)-1], nil
		}
		text := reads[next]
		next++
		if text == "" {
			return "", errors.New("clipboard busy")
		}
		return text, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got []string
	w := &ClipboardWatcher{
		Read:     read,
		Interval: time.Millisecond,
		OnText: func(text string) {
			got = append(got, text)
			if len(got) == 2 {
				cancel()
			}
		},
	}
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("OnText calls = %v, want %v", got, want)
	}
}

func TestClipboardWatcherInitialReadError(t *testing.T) {
	w := &ClipboardWatcher{
		Read:   func() (string, error) { return "", errors.New("no clipboard") },
		OnText: func(string) { t.Error("OnText called") },
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestImportCommand(t *testing.T) {
	dir := newTestLibrary(t)
	src := t.TempDir()
	m3u := src + "/evening.m3u"
	content := "#EXTM3U\n#PLAYLIST:Evening\nhttps://example.com/v/1\nhttps://example.com/v/3\nmissing.mp4\n"
	if err := os.WriteFile(m3u, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fetcher := fakeFetcher{
		"https://example.com/v/1": "Night set",
		"https://example.com/v/3": "Rehearsal",
	}

	res, err := run(t, dir, fetcher, &fakeClipboard{}, "", "import", m3u, "--folder", "Music")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	for _, want := range []string{"missing  missing.mp4", "Music/Evening: 2 added, 0 skipped, 0 failed"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("import output missing %q:\n%s", want, res.out)
		}
	}

	// Importing again extends the same playlist.
	res, err = run(t, dir, fetcher, &fakeClipboard{}, "", "import", m3u, "--folder", "Music")
	if err != nil {
		t.Fatalf("second import error = %v", err)
	}
	if !strings.Contains(res.out, "0 added, 2 skipped") {
		t.Errorf("second import output:\n%s", res.out)
	}

	p, err := reopen(t, dir).FindPlaylist("Music/Evening")
	if err != nil {
		t.Fatal(err)
	}
	if p.VideoCount() != 2 {
		t.Errorf("Evening videos = %d, want 2", p.VideoCount())
	}
}

func TestImportCommandRejectsUnknownFormat(t *testing.T) {
	dir := newTestLibrary(t)
	src := t.TempDir() + "/links.txt"
	if err := os.WriteFile(src, []byte("https://example.com/v/3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, fakeFetcher{}, &fakeClipboard{}, "", "import", src); err == nil {
		t.Error("expected error")
	}
}
