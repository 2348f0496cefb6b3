// Package startup handles configuration loading and startup/shutdown
// logging for the video-shelf server.
//
// # Configuration
//
// [LoadConfig] first loads ./.env (variables already in the environment
// win), then reads:
//
//   - LIBRARY_DIR: playlist library root (default: ./library)
//   - DATABASE_DIR: settings database directory (default: ./data)
//   - RESOURCE_DIR: placeholder and domain icon images (default: ./resources)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve metrics (default: true)
//   - AUTOSAVE_INTERVAL: playlist autosave period, negative disables (default: 30s)
//   - PIPELINE_TICK: recompute scheduler tick (default: 50ms)
//   - THUMBNAIL_CACHE_SIZE: decoded thumbnails kept in memory (default: 200)
//   - THUMBNAIL_WIDTH: generated thumbnail width in pixels (default: 256)
//   - FUZZY_SENSITIVITY: initial title similarity threshold (default: 0.95)
//   - VIPS_ENABLED: decode with libvips when available (default: false)
//   - WATCH_ENABLED: pick up playlist files changed by other programs (default: true)
//   - WORKERS: worker pool size, 0 sizes it from the CPU count
//   - LOG_LEVEL, LOG_HEALTH_CHECKS
//
// The library and database directories are created when missing and must
// be writable.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
