// Package mediatypes classifies links and files by extension.
//
// It has no dependencies inside the module so that both the library and the
// thumbnail code can import it.
//
// # File Types
//
//	mediatypes.FileTypeVideo    // Raw video files (mp4, webm, mkv, ...)
//	mediatypes.FileTypeImage    // Images usable as thumbnails or icons
//	mediatypes.FileTypePlaylist // Importable playlists (wpl, m3u)
//	mediatypes.FileTypeOther    // Web pages and everything else
//
// TypeOf works on URLs as well as paths:
//
//	mediatypes.TypeOf("https://cdn.example.com/clip.MP4?t=1") // FileTypeVideo
//
// # MIME Types
//
// Use GetMimeType to get the content type for HTTP responses:
//
//	mimeType := mediatypes.GetMimeType(mediatypes.Ext(name)) // e.g., "image/png"
package mediatypes
