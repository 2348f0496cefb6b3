// Package main provides the entry point for the video-shelf server.
//
// video-shelf keeps playlists of video links in a directory tree of JSON
// files, searches the videos of the selected playlists and serves their
// thumbnails through a bounded cache.
//
// # Application Lifecycle
//
// The server starts in this order:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads environment variables and .env files
//  3. Database Initialization: Opens the SQLite settings database
//  4. Component Initialization:
//     - Worker Pools: compute for recomputes, io for saves and thumbnails
//     - Memory Monitor: Slows thumbnail generation under memory pressure
//     - Library: Loads the playlist tree and starts autosave
//     - Watcher: Reloads playlists changed outside the server
//     - Session: Restores settings and selection, runs both pipelines
//     - Thumbnail Cache: Loads textures in the background
//  5. HTTP Server Setup: Registers routes and middleware
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and saves every playlist
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080): the JSON API under /api, thumbnails
//     and the health endpoints.
//  2. Metrics Server (default port 9090, optional): Prometheus metrics at
//     /metrics.
//
// # Environment Variables
//
//   - LIBRARY_DIR: Root of the playlist tree (default: ./library)
//   - DATABASE_DIR: Directory for the SQLite database (default: ./data)
//   - RESOURCE_DIR: Placeholder image and domain icons (default: ./resources)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - AUTOSAVE_INTERVAL: Delay before a changed playlist is saved (default: 30s)
//   - PIPELINE_TICK: How often the pipelines check for work (default: 50ms)
//   - THUMBNAIL_CACHE_SIZE: Thumbnail cache entries (default: 200)
//   - THUMBNAIL_WIDTH: Thumbnail width in pixels (default: 256)
//   - FUZZY_SENSITIVITY: Initial title match threshold (default: 0.95)
//   - VIPS_ENABLED: Decode thumbnails with libvips (default: false)
//   - WATCH_ENABLED: Watch the library for outside changes (default: true)
//   - WORKERS: Worker pool size, 0 for automatic
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - LOG_HEALTH_CHECKS: Log requests to the health endpoints (default: true)
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the servers stop accepting requests, the pipelines
// and autosave stop, every dirty playlist is saved, cached thumbnails are
// released and the database is closed. The whole sequence is bounded by a
// 30 second timeout.
//
// The shelfctl command in cmd/shelfctl works on the same library directory
// from the terminal.
package main
