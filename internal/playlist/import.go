package playlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"video-shelf/internal/filesystem"
	"video-shelf/internal/mediatypes"
)

// ErrUnsupportedFormat is returned for files that are not a known playlist format.
var ErrUnsupportedFormat = errors.New("unsupported playlist format")

// Import is the parsed content of a playlist file.
type Import struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

// Entry is one item of an imported playlist.
type Entry struct {
	// Link is a URL or an absolute file path.
	Link string `json:"link"`
	// OrigPath is the entry as written in the playlist file.
	OrigPath string `json:"origPath"`
	// Exists is false for file entries that could not be found.
	Exists bool `json:"exists"`
}

// Links returns the links of every entry that exists.
func (im *Import) Links() []string {
	var links []string
	for _, e := range im.Entries {
		if e.Exists {
			links = append(links, e.Link)
		}
	}
	return links
}

// Missing returns the original paths of file entries that were not found.
func (im *Import) Missing() []string {
	var missing []string
	for _, e := range im.Entries {
		if !e.Exists {
			missing = append(missing, e.OrigPath)
		}
	}
	return missing
}

// ParseFile reads the playlist at path. searchDir may be empty.
func ParseFile(path, searchDir string) (*Import, error) {
	if mediatypes.TypeOf(path) != mediatypes.FileTypePlaylist {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	var im *Import
	switch mediatypes.Ext(path) {
	case ".wpl":
		im, err = parseWPL(data)
	default:
		im = parseM3U(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	im.Path = path
	if im.Name == "" {
		im.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	dir := filepath.Dir(path)
	for i := range im.Entries {
		im.Entries[i] = resolveEntry(im.Entries[i].OrigPath, dir, searchDir)
	}
	return im, nil
}

// resolveEntry turns src into a link. Remote URLs are kept; file paths are
// tried as written, relative to playlistDir and finally by name in
// searchDir.
func resolveEntry(src, playlistDir, searchDir string) Entry {
	entry := Entry{OrigPath: src}
	if isRemote(src) {
		entry.Link = src
		entry.Exists = true
		return entry
	}

	// Handle Windows paths
	srcPath := strings.ReplaceAll(src, "\\", "/")
	srcPath = strings.TrimPrefix(srcPath, "file://")
	name := filepath.Base(srcPath)

	var candidates []string
	switch {
	case isWindowsAbs(srcPath) || strings.HasPrefix(srcPath, "//"):
		// Drive letters and UNC shares only resolve through the search dir.
	case filepath.IsAbs(srcPath):
		candidates = append(candidates, filepath.Clean(srcPath))
	default:
		candidates = append(candidates, filepath.Join(playlistDir, srcPath))
	}
	if searchDir != "" {
		candidates = append(candidates, filepath.Join(searchDir, name))
	}

	for _, c := range candidates {
		if fileExists(c) {
			if abs, err := filepath.Abs(c); err == nil {
				c = abs
			}
			entry.Link = c
			entry.Exists = true
			return entry
		}
	}
	entry.Link = name
	return entry
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// fileExists reports whether path is a regular file.
func fileExists(path string) bool {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil && !info.IsDir()
}
