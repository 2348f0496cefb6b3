package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		setEnv       bool
		want         string
	}{
		{"Returns default when env var not set", "SHELF_TEST_UNSET", "default", "", false, "default"},
		{"Returns env value when set", "SHELF_TEST_SET", "default", "custom", true, "custom"},
		{"Returns default when env var is empty", "SHELF_TEST_EMPTY", "default", "", true, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("SHELF_BOOL", "1")
	t.Setenv("SHELF_BAD_BOOL", "maybe")
	t.Setenv("SHELF_INT", "42")
	t.Setenv("SHELF_NEG_INT", "-3")
	t.Setenv("SHELF_FLOAT", "0.8")
	t.Setenv("SHELF_BAD_FLOAT", "high")
	t.Setenv("SHELF_DURATION", "2m")
	t.Setenv("SHELF_BAD_DURATION", "soon")

	if !getEnvBool("SHELF_BOOL", false) {
		t.Error("getEnvBool(1) = false")
	}
	if !getEnvBool("SHELF_BAD_BOOL", true) {
		t.Error("invalid bool should return the default")
	}
	if got := getEnvInt("SHELF_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}
	if got := getEnvInt("SHELF_NEG_INT", 7); got != 7 {
		t.Errorf("negative int = %d, want default 7", got)
	}
	if got := getEnvFloat("SHELF_FLOAT", 0.1); got != 0.8 {
		t.Errorf("getEnvFloat() = %v, want 0.8", got)
	}
	if got := getEnvFloat("SHELF_BAD_FLOAT", 0.1); got != 0.1 {
		t.Errorf("invalid float = %v, want default", got)
	}
	if got := getEnvDuration("SHELF_DURATION", time.Second); got != 2*time.Minute {
		t.Errorf("getEnvDuration() = %v, want 2m", got)
	}
	if got := getEnvDuration("SHELF_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("invalid duration = %v, want default", got)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"LIBRARY_DIR", "DATABASE_DIR", "RESOURCE_DIR", "PORT", "METRICS_PORT",
		"AUTOSAVE_INTERVAL", "PIPELINE_TICK", "THUMBNAIL_CACHE_SIZE", "THUMBNAIL_WIDTH",
		"FUZZY_SENSITIVITY", "VIPS_ENABLED", "WATCH_ENABLED", "WORKERS",
	} {
		t.Setenv(key, "")
	}

	c := ConfigFromEnv()
	if c.LibraryDir != "./library" || c.Port != "8080" || c.MetricsPort != "9090" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.AutosaveInterval != DefaultAutosaveInterval || c.PipelineTick != DefaultPipelineTick {
		t.Errorf("intervals = %v/%v", c.AutosaveInterval, c.PipelineTick)
	}
	if c.ThumbnailCacheSize != 200 || c.ThumbnailWidth != 256 || c.FuzzySensitivity != 0.95 {
		t.Errorf("thumbnail/search defaults = %d/%d/%v", c.ThumbnailCacheSize, c.ThumbnailWidth, c.FuzzySensitivity)
	}
	if c.VipsEnabled || !c.WatchEnabled || c.Workers != 0 {
		t.Errorf("flags = vips:%v watch:%v workers:%d", c.VipsEnabled, c.WatchEnabled, c.Workers)
	}
	if c.DatabasePath != filepath.Join("./data", "video-shelf.db") {
		t.Errorf("DatabasePath = %q", c.DatabasePath)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "shelf.env")
	content := "SHELF_FROM_FILE=loaded\nSHELF_PRESET=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHELF_PRESET", "from-env")
	// Registers cleanup for a variable the file sets.
	t.Setenv("SHELF_FROM_FILE", "")
	os.Unsetenv("SHELF_FROM_FILE")

	if err := LoadEnvFiles(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}
	if got := os.Getenv("SHELF_FROM_FILE"); got != "loaded" {
		t.Errorf("SHELF_FROM_FILE = %q, want loaded", got)
	}
	if got := os.Getenv("SHELF_PRESET"); got != "from-env" {
		t.Errorf("SHELF_PRESET = %q, existing variables must win", got)
	}
}

func TestPrepareCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	c := &Config{
		LibraryDir:  filepath.Join(base, "library"),
		DatabaseDir: filepath.Join(base, "data", "db"),
		ResourceDir: filepath.Join(base, "resources"),
	}

	if err := c.prepare(); err != nil {
		t.Fatalf("prepare() error = %v", err)
	}
	for _, dir := range []string{c.LibraryDir, c.DatabaseDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if c.DatabasePath != filepath.Join(c.DatabaseDir, "video-shelf.db") {
		t.Errorf("DatabasePath = %q", c.DatabasePath)
	}
	if c.PlaceholderPath != filepath.Join(c.ResourceDir, "V4C.png") {
		t.Errorf("PlaceholderPath = %q", c.PlaceholderPath)
	}
}

func TestPrepareRejectsFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "library")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &Config{LibraryDir: file, DatabaseDir: base, ResourceDir: base}
	if err := c.prepare(); err == nil {
		t.Error("prepare() with a file as library directory should fail")
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/health", noop).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/api/selection", noop).Methods(http.MethodGet, http.MethodPut)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3: %+v", len(routes), routes)
	}
	if routes[0] != (RouteInfo{Method: http.MethodGet, Path: "/health", Name: "health"}) {
		t.Errorf("routes[0] = %+v", routes[0])
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/health", "health"},
		{"/api/playlist/videos", "api/playlist"},
		{"/api/domain-icon/{domain}", "api/domain-icon"},
		{"/api", "api"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
