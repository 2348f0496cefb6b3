// Package playlist reads playlist files written by other players so their
// entries can be added to a library playlist.
//
// Currently supported formats:
//   - WPL (Windows Playlist): XML-based playlist format used by Windows Media Player
//   - M3U and M3U8: one entry per line, '#' lines are directives
//
// Entries that are http(s) URLs are kept as they are. File entries may use
// Windows separators, drive letters or paths relative to the playlist file.
// A file that cannot be found where the entry points is looked up by name in
// the optional search directory.
package playlist
