/*
Package filesystem provides resilient filesystem operations for the library
and cache directories.

# Retries

StatWithRetry, OpenWithRetry, ReadFileWithRetry and ReadDirWithRetry wrap the
corresponding os calls and retry with exponential backoff when the error is
ESTALE (stale NFS file handle). Any other error is returned immediately.

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

# Writes

WriteFileAtomic writes through a temporary file in the destination directory
followed by a rename, so a crash during an autosave never leaves a truncated
playlist. MoveToTrash moves deleted playlists and folders into a trash
directory instead of unlinking them.

# Metrics

Operations are labelled with a volume name resolved by a VolumeResolver
(longest-prefix match on absolute paths) and reported through the Observer
set with SetObserver. The metrics package provides the Prometheus-backed
implementation; when no observer is set nothing is recorded, which keeps
tests free of global state.
*/
package filesystem
