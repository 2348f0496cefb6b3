package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseWPL(t *testing.T) {
	tmpDir := t.TempDir()
	listDir := filepath.Join(tmpDir, "lists")
	searchDir := filepath.Join(tmpDir, "media")
	writeFile(t, filepath.Join(listDir, "clips", "near.mp4"), "x")
	writeFile(t, filepath.Join(searchDir, "far.mkv"), "x")

	wplPath := filepath.Join(listDir, "party.wpl")
	writeFile(t, wplPath, `<?wpl version="1.0"?>
<smil>
  <head>
    <meta name="Generator" content="Microsoft Windows Media Player"/>
    <title>Party Mix</title>
  </head>
  <body>
    <seq>
      <media src="clips\near.mp4"/>
      <media src="C:\Users\me\Videos\far.mkv"/>
      <media src="https://cdn.example.com/remote.webm"/>
      <media src="\\server\share\gone.avi"/>
      <media src=""/>
    </seq>
  </body>
</smil>`)

	im, err := ParseFile(wplPath, searchDir)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if im.Name != "Party Mix" {
		t.Errorf("Name = %q, want Party Mix", im.Name)
	}

	wantLinks := []string{
		filepath.Join(listDir, "clips", "near.mp4"),
		filepath.Join(searchDir, "far.mkv"),
		"https://cdn.example.com/remote.webm",
	}
	if got := im.Links(); !reflect.DeepEqual(got, wantLinks) {
		t.Errorf("Links() = %v, want %v", got, wantLinks)
	}
	if got := im.Missing(); !reflect.DeepEqual(got, []string{`\\server\share\gone.avi`}) {
		t.Errorf("Missing() = %v", got)
	}
}

func TestParseM3U(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.mp4"), "x")
	m3uPath := filepath.Join(tmpDir, "road trip.m3u8")
	writeFile(t, m3uPath, "\xef\xbb\xbf#EXTM3U\n#EXTINF:123,Song\na.mp4\n\nhttps://example.com/b.mp4\nmissing.mp4\n")

	im, err := ParseFile(m3uPath, "")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if im.Name != "road trip" {
		t.Errorf("Name = %q, want the file name", im.Name)
	}
	wantLinks := []string{filepath.Join(tmpDir, "a.mp4"), "https://example.com/b.mp4"}
	if got := im.Links(); !reflect.DeepEqual(got, wantLinks) {
		t.Errorf("Links() = %v, want %v", got, wantLinks)
	}
	if got := im.Missing(); !reflect.DeepEqual(got, []string{"missing.mp4"}) {
		t.Errorf("Missing() = %v", got)
	}
}

func TestParseM3UTitleDirective(t *testing.T) {
	im := parseM3U([]byte("#EXTM3U\n#PLAYLIST: Evening\nhttps://example.com/a.mp4\n"))
	if im.Name != "Evening" {
		t.Errorf("Name = %q, want Evening", im.Name)
	}
	if len(im.Entries) != 1 {
		t.Errorf("Entries = %d, want 1", len(im.Entries))
	}
}

func TestParseFileErrors(t *testing.T) {
	tmpDir := t.TempDir()
	badXML := filepath.Join(tmpDir, "bad.wpl")
	writeFile(t, badXML, "<smil><head>")
	text := filepath.Join(tmpDir, "notes.txt")
	writeFile(t, text, "https://example.com/a.mp4")

	if _, err := ParseFile(badXML, ""); err == nil {
		t.Error("expected error for malformed WPL")
	}
	if _, err := ParseFile(text, ""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFile(.txt) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := ParseFile(filepath.Join(tmpDir, "absent.m3u"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	writeFile(t, testFile, "test")

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"Existing file", testFile, true},
		{"Non-existent file", filepath.Join(tmpDir, "nonexistent.txt"), false},
		{"Directory", tmpDir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fileExists(tt.path); got != tt.expected {
				t.Errorf("fileExists(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}
