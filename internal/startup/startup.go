package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"video-shelf/internal/database"
	"video-shelf/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	LibraryDir  string
	DatabaseDir string
	ResourceDir string
	Port        string
	MetricsPort string

	AutosaveInterval   time.Duration
	PipelineTick       time.Duration
	ThumbnailCacheSize int
	ThumbnailWidth     int
	FuzzySensitivity   float64
	VipsEnabled        bool
	WatchEnabled       bool
	Workers            int

	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived paths
	DatabasePath    string
	PlaceholderPath string
}

// Defaults used when a variable is unset or invalid.
const (
	DefaultAutosaveInterval   = 30 * time.Second
	DefaultPipelineTick       = 50 * time.Millisecond
	DefaultThumbnailCacheSize = 200
	DefaultThumbnailWidth     = 256
	DefaultFuzzySensitivity   = 0.95
	placeholderFileName       = "V4C.png"
)

// LoadEnvFiles loads variables from the given .env files, or ./.env when
// none are given. Variables already set in the environment win. A missing
// file is not an error.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			logging.Debug("Loaded environment from %s", f)
			continue
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", f, err)
	}
	return nil
}

// LoadConfig reads .env, then loads and validates configuration from
// environment variables, creating directories as needed.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := LoadEnvFiles(); err != nil {
		logging.Warn("  %v", err)
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := ConfigFromEnv()
	config.log()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := config.prepare(); err != nil {
		return nil, err
	}
	return config, nil
}

// ConfigFromEnv reads the configuration without touching the filesystem.
func ConfigFromEnv() *Config {
	databaseDir := getEnv("DATABASE_DIR", "./data")
	resourceDir := getEnv("RESOURCE_DIR", "./resources")
	return &Config{
		LibraryDir:         getEnv("LIBRARY_DIR", "./library"),
		DatabaseDir:        databaseDir,
		ResourceDir:        resourceDir,
		Port:               getEnv("PORT", "8080"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		AutosaveInterval:   getEnvDuration("AUTOSAVE_INTERVAL", DefaultAutosaveInterval),
		PipelineTick:       getEnvDuration("PIPELINE_TICK", DefaultPipelineTick),
		ThumbnailCacheSize: getEnvInt("THUMBNAIL_CACHE_SIZE", DefaultThumbnailCacheSize),
		ThumbnailWidth:     getEnvInt("THUMBNAIL_WIDTH", DefaultThumbnailWidth),
		FuzzySensitivity:   getEnvFloat("FUZZY_SENSITIVITY", DefaultFuzzySensitivity),
		VipsEnabled:        getEnvBool("VIPS_ENABLED", false),
		WatchEnabled:       getEnvBool("WATCH_ENABLED", true),
		Workers:            getEnvInt("WORKERS", 0),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		DatabasePath:       filepath.Join(databaseDir, database.FileName),
		PlaceholderPath:    filepath.Join(resourceDir, placeholderFileName),
	}
}

func (c *Config) log() {
	logging.Info("  LIBRARY_DIR:          %s", c.LibraryDir)
	logging.Info("  DATABASE_DIR:         %s", c.DatabaseDir)
	logging.Info("  RESOURCE_DIR:         %s", c.ResourceDir)
	logging.Info("  PORT:                 %s", c.Port)
	logging.Info("  METRICS_PORT:         %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:      %v", c.MetricsEnabled)
	logging.Info("  AUTOSAVE_INTERVAL:    %v", c.AutosaveInterval)
	logging.Info("  PIPELINE_TICK:        %v", c.PipelineTick)
	logging.Info("  THUMBNAIL_CACHE_SIZE: %d", c.ThumbnailCacheSize)
	logging.Info("  THUMBNAIL_WIDTH:      %d", c.ThumbnailWidth)
	logging.Info("  FUZZY_SENSITIVITY:    %.2f", c.FuzzySensitivity)
	logging.Info("  VIPS_ENABLED:         %v", c.VipsEnabled)
	logging.Info("  WATCH_ENABLED:        %v", c.WatchEnabled)
	logging.Info("  WORKERS:              %d", c.Workers)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
}

// prepare resolves every directory to an absolute path and makes sure the
// library and database directories exist and are writable.
func (c *Config) prepare() error {
	for _, d := range []struct {
		name string
		path *string
	}{
		{"library", &c.LibraryDir},
		{"database", &c.DatabaseDir},
		{"resource", &c.ResourceDir},
	} {
		abs, err := filepath.Abs(*d.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.path = abs
		logging.Info("  %s directory (absolute): %s", strings.ToUpper(d.name[:1])+d.name[1:], abs)
	}
	c.DatabasePath = filepath.Join(c.DatabaseDir, database.FileName)
	c.PlaceholderPath = filepath.Join(c.ResourceDir, placeholderFileName)

	for _, d := range []struct {
		name, path string
	}{
		{"library", c.LibraryDir},
		{"database", c.DatabaseDir},
	} {
		if err := ensureDirectory(d.path, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		if err := testWriteAccess(d.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable", d.name)
	}

	if _, err := os.Stat(c.PlaceholderPath); err != nil {
		logging.Warn("  Placeholder image %s not found, a plain tile will be used", c.PlaceholderPath)
	}
	return nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogLibraryInit logs the library scan result
func LogLibraryInit(playlists, folders int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Loaded %d playlists in %d folders in %v", playlists, folders, duration)
}

// LogThumbnailInit logs thumbnail generator initialization and checks FFmpeg
func LogThumbnailInit(width, cacheSize int, vips bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Width: %dpx, cache size: %d", width, cacheSize)
	if vips {
		logging.Info("  Decoder: libvips with imaging fallback")
	} else {
		logging.Info("  Decoder: imaging")
	}
	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Thumbnails of video files will not be generated")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			group := getRouteGroup(route.Path)
			groups[group] = append(groups[group], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			label := group
			if label == "" {
				label = "root"
			}
			logging.Debug("  [%s]", label)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(path, "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Application:     http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
         _     _                   _          _  __
  __   _(_) __| | ___  ___     ___| |__   ___| |/ _|
  \ \ / / |/ _' |/ _ \/ _ \___/ __| '_ \ / _ \ | |_
   \ V /| | (_| |  __/ (_) |___\__ \ | | |  __/ |  _|
    \_/ |_|\__,_|\___|\___/    |___/_| |_|\___|_|_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	first, _, _ := strings.Cut(string(output), "\n")
	logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
