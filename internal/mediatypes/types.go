package mediatypes

import (
	"net/url"
	"path"
	"strings"
)

// FileType represents the kind of file a link points at.
type FileType string

const (
	// FileTypeVideo represents a directly playable video file.
	FileTypeVideo FileType = "video"
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypePlaylist represents a playlist file that can be imported.
	FileTypePlaylist FileType = "playlist"
	// FileTypeOther represents anything else, such as a web page.
	FileTypeOther FileType = "other"
)

// VideoExtensions maps file extensions to whether they are raw video files.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mkv":  true,
	".flv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".m4v":  true,
	".f4v":  true,
	".swf":  true,
	".mp2":  true,
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// PlaylistExtensions maps file extensions to whether they are importable playlist formats.
var PlaylistExtensions = map[string]bool{
	".wpl":  true,
	".m3u":  true,
	".m3u8": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",

	// Videos
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".flv":  "video/x-flv",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".m4v":  "video/x-m4v",

	// Playlists
	".wpl":  "application/vnd.ms-wpl",
	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if PlaylistExtensions[ext] {
		return FileTypePlaylist
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Ext returns the lowercase extension of a link. For URLs only the path is
// considered, so query strings and fragments are ignored.
func Ext(link string) string {
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	return strings.ToLower(path.Ext(link))
}

// TypeOf returns the FileType of a link or file path.
func TypeOf(link string) FileType {
	return GetFileType(Ext(link))
}
