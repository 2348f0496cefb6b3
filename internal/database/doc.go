// Package database provides SQLite storage for video-shelf's own state.
//
// Playlists live in JSON files in the library directory; the database only
// keeps what belongs to the application:
//   - Settings such as the fuzzy sensitivity and sort order
//   - The playlist selection, restored on start
//   - Library statistics snapshots written after each aggregation
//
// The database uses WAL mode and applies a timeout to every query.
package database
