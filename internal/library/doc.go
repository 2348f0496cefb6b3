/*
Package library is the in-memory model of the user's video library: a tree
of folders that contain playlists, which contain videos.

The tree mirrors a directory on disk. Every folder is a directory, every
playlist is a <name>.json file holding a JSON array of videos, and each
playlist keeps cached thumbnails in a sibling ".<name> Thumbnails"
directory. Names starting with "." are reserved and skipped when scanning.
Deleted playlists and folders are moved to <root>/.trash.

# Concurrency

Folders and playlists carry their own RWMutex. Readers (the aggregation
pipeline, HTTP handlers) take short read locks to copy snapshots, never
holding a lock while computing. Structural changes (create, rename, move,
delete) serialise on a library-wide lock that saves also take for reading,
so a save never writes to a path that is being moved. Each playlist allows
one in-flight save.

# Persistence

Playlists are written through a VideoStore. Saves only happen for dirty
playlists, either from the autosave loop (Library.Run) or on Flush/Close.
A failed save leaves the playlist dirty so the next autosave retries.
Every folder's first autosave is offset randomly within the interval so
large libraries do not write every file in the same tick.

# Change notification

Every mutation calls the listeners registered with OnChange after locks are
released. The session package uses this to mark its aggregation pipeline
dirty.
*/
package library
