package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"video-shelf/internal/cache"
	"video-shelf/internal/database"
	"video-shelf/internal/filesystem"
	"video-shelf/internal/handlers"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/media"
	"video-shelf/internal/memory"
	"video-shelf/internal/metrics"
	"video-shelf/internal/middleware"
	"video-shelf/internal/session"
	"video-shelf/internal/startup"
	"video-shelf/internal/workers"

	"github.com/gorilla/mux"
)

// thumbnailRetryAfter is how long a thumbnail that failed to load serves
// the placeholder before it is tried again.
const thumbnailRetryAfter = 5 * time.Minute

func main() {
	startTime := time.Now()

	memConfig := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(volumeResolver(config))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Worker pools: compute runs recomputes, io runs saves, thumbnail
	// downloads and decoding.
	computePool := workers.NewPool("compute", workers.ForCPU(config.Workers), 64)
	ioPool := workers.NewPool("io", workers.ForIO(config.Workers), 256)

	monitor := memory.NewMonitor(memory.Config{
		LimitBytes:        memConfig.GoMemLimit,
		HighWaterMark:     memory.DefaultConfig().HighWaterMark,
		CriticalWaterMark: memory.DefaultConfig().CriticalWaterMark,
	})
	go monitor.Run(ctx)

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure Go decoding: %v", err)
		}
	}
	startup.LogThumbnailInit(config.ThumbnailWidth, config.ThumbnailCacheSize, config.VipsEnabled && media.IsVipsAvailable())

	generator := media.NewGenerator(config.ThumbnailWidth)
	generator.Throttle = monitor

	// Load the library
	libStart := time.Now()
	lib, err := library.Open(ctx, config.LibraryDir, library.Options{
		AutosaveInterval: config.AutosaveInterval,
		Background:       ioPool,
		Thumbnails:       generator.Hook(ctx, ioPool),
		OnAutosave:       recordAutosave(db),
	})
	if err != nil {
		startup.LogFatal("Failed to open library: %v", err)
	}
	stats := lib.Stats()
	startup.LogLibraryInit(stats.Playlists, stats.Folders, time.Since(libStart))

	go lib.Run(ctx)
	if config.WatchEnabled {
		go func() {
			if err := lib.Watch(ctx); err != nil {
				logging.Warn("Failed to watch library for outside changes: %v", err)
			}
		}()
	}

	collector := metrics.NewCollector(lib, 30*time.Second)
	collector.Start()

	// Search session
	sess := session.New(ctx, lib, session.Options{
		Submit:      computePool,
		Store:       db,
		Sensitivity: &config.FuzzySensitivity,
		Workers:     config.Workers,
	})
	sess.Start(ctx, config.PipelineTick)

	// Thumbnail cache
	placeholder := cache.NewPlaceholder(media.PlaceholderLoader(config.PlaceholderPath, config.ThumbnailWidth))
	placeholder.Start(ctx)
	thumbs := cache.New(
		cache.Config{Name: "thumbnails", MaxEntries: config.ThumbnailCacheSize, RetryAfter: thumbnailRetryAfter},
		media.NewTextureLoader(config.ThumbnailWidth, config.VipsEnabled).Load,
		media.Presenter{},
		ioPool,
		placeholder,
	).WithContext(ctx)

	// Initialize handlers
	h := handlers.New(handlers.Deps{
		Library:     lib,
		Session:     sess,
		Thumbnails:  thumbs,
		Fetcher:     library.NewFileMetadataFetcher(),
		Database:    db,
		ResourceDir: config.ResourceDir,
	})

	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsRouter := http.NewServeMux()
		metricsRouter.Handle("/metrics", handlers.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(shutdownDeps{
		cancel:  cancel,
		srv:     srv,
		metrics: metricsSrv,
		lib:     lib,
		thumbs:  thumbs,
		pools:   []*workers.Pool{computePool, ioPool},
		db:      db,
		vips:    config.VipsEnabled,
		collect: collector,
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	if config.MetricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	h.Register(r)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	return r
}

// recordAutosave stores the time of each completed autosave pass.
func recordAutosave(db *database.Database) func(time.Time) {
	return func(at time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.SetLastAutosave(ctx, at); err != nil {
			logging.Warn("Failed to record autosave time: %v", err)
		}
	}
}

// volumeResolver labels filesystem metrics with the volume a path lives on.
func volumeResolver(config *startup.Config) *filesystem.VolumeResolver {
	return filesystem.NewVolumeResolver(map[string]string{
		"library":   config.LibraryDir,
		"database":  filepath.Dir(config.DatabasePath),
		"resources": config.ResourceDir,
	})
}

var shutdownDone = make(chan struct{})

type shutdownDeps struct {
	cancel  context.CancelFunc
	srv     *http.Server
	metrics *http.Server
	lib     *library.Library
	thumbs  *handlers.ThumbnailCache
	pools   []*workers.Pool
	db      *database.Database
	vips    bool
	collect *metrics.Collector
}

func handleShutdown(d shutdownDeps) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := d.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
	if d.metrics != nil {
		if err := d.metrics.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	// Stops the pipelines, autosave, watcher and memory monitor.
	d.cancel()
	d.collect.Stop()

	startup.LogShutdownStep("Saving playlists")
	if err := d.lib.Close(ctx); err != nil {
		logging.Error("Failed to save playlists: %v", err)
	} else {
		startup.LogShutdownStepComplete("Playlists saved")
	}

	startup.LogShutdownStep("Releasing thumbnails")
	d.thumbs.Purge()
	d.thumbs.Wait()
	for _, p := range d.pools {
		p.Close()
	}
	if d.vips {
		media.ShutdownVips()
	}
	startup.LogShutdownStepComplete("Thumbnails released")

	startup.LogShutdownStep("Closing database")
	if err := d.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
