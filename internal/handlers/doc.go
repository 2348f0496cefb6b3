// Package handlers implements the HTTP API of the video-shelf server.
//
// Mutations go straight to the library, which notifies the session so the
// recompute pipelines pick them up. Reads of search results and uploader
// suggestions only touch the latest published snapshots, so no request
// waits for a search to finish. Thumbnails come from the bounded cache and
// fall back to the placeholder while loading; the X-Thumbnail-State header
// tells clients whether to poll again.
package handlers
