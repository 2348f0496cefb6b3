package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func setupTestDB(t testing.TB) (*Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), FileName)
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "sub", FileName)
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Fatal("New() in a missing directory should fail")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), FileName)
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.SetMetadata(ctx, "k", "v"); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = New(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if v, err := db.GetMetadata(ctx, "k"); err != nil || v != "v" {
		t.Errorf("GetMetadata() after reopen = %q, %v; want v", v, err)
	}
}

func TestMetadata(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	value, err := db.GetMetadata(ctx, "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata(nonexistent) error = %v, want ErrNotFound", err)
	}
	if value != "" {
		t.Errorf("Expected empty string with error, got %s", value)
	}

	for _, v := range []string{"value1", "value2"} {
		if err := db.SetMetadata(ctx, "key1", v); err != nil {
			t.Fatalf("SetMetadata failed: %v", err)
		}
		got, err := db.GetMetadata(ctx, "key1")
		if err != nil {
			t.Fatalf("GetMetadata failed: %v", err)
		}
		if got != v {
			t.Errorf("GetMetadata() = %q, want %q", got, v)
		}
	}
}

func TestSettings(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	s, err := db.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s != (Settings{}) {
		t.Errorf("LoadSettings() on empty db = %+v, want zero", s)
	}

	sensitivity := 0.8
	if err := db.SaveSettings(ctx, Settings{Sensitivity: &sensitivity, SortOrder: "duration-desc"}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	// Unset fields leave stored values alone.
	if err := db.SaveSettings(ctx, Settings{SortOrder: "title-asc"}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, err := db.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.SortOrder != "title-asc" {
		t.Errorf("SortOrder = %q, want title-asc", got.SortOrder)
	}
	if got.Sensitivity == nil || *got.Sensitivity != 0.8 {
		t.Errorf("Sensitivity = %v, want 0.8", got.Sensitivity)
	}

	// Zero is a real threshold, not "unset".
	zero := 0.0
	if err := db.SaveSettings(ctx, Settings{Sensitivity: &zero}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err = db.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.Sensitivity == nil || *got.Sensitivity != 0 {
		t.Errorf("Sensitivity after saving 0 = %v, want 0", got.Sensitivity)
	}

	if err := db.SetMetadata(ctx, KeySensitivity, "not a number"); err != nil {
		t.Fatal(err)
	}
	got, err = db.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.Sensitivity != nil {
		t.Errorf("unreadable sensitivity should be unset, got %v", *got.Sensitivity)
	}
}

func TestLastAutosave(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastAutosave(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("GetLastAutosave() = %v, %v; want zero time", got, err)
	}

	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := db.SetLastAutosave(ctx, when); err != nil {
		t.Fatalf("SetLastAutosave() error = %v", err)
	}
	got, err = db.GetLastAutosave(ctx)
	if err != nil {
		t.Fatalf("GetLastAutosave() error = %v", err)
	}
	if !got.Equal(when) {
		t.Errorf("GetLastAutosave() = %v, want %v", got, when)
	}

	if err := db.SetLastAutosave(ctx, time.Time{}); err != nil {
		t.Fatalf("SetLastAutosave(zero) error = %v", err)
	}
	if got, _ := db.GetLastAutosave(ctx); !got.IsZero() {
		t.Errorf("GetLastAutosave() after clear = %v, want zero", got)
	}
}

func TestSelection(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	paths, err := db.LoadSelection(ctx)
	if err != nil || len(paths) != 0 {
		t.Fatalf("LoadSelection() on empty db = %v, %v", paths, err)
	}

	want := []string{"Music/Live", "Top", "A/B/C"}
	if err := db.SaveSelection(ctx, want); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
	if got, _ := db.LoadSelection(ctx); !slices.Equal(got, want) {
		t.Errorf("LoadSelection() = %v, want %v", got, want)
	}

	if err := db.SaveSelection(ctx, []string{"Top", "Top", "Other"}); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
	if got, _ := db.LoadSelection(ctx); !slices.Equal(got, []string{"Top", "Other"}) {
		t.Errorf("LoadSelection() = %v, want [Top Other]", got)
	}

	if err := db.SaveSelection(ctx, nil); err != nil {
		t.Fatalf("SaveSelection(nil) error = %v", err)
	}
	if got, _ := db.LoadSelection(ctx); len(got) != 0 {
		t.Errorf("LoadSelection() after clear = %v", got)
	}
}

func TestLibraryStats(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.LatestLibraryStats(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LatestLibraryStats() on empty db error = %v, want ErrNotFound", err)
	}

	base := time.Unix(1_700_000_000, 0)
	first := LibraryStats{Folders: 1, Playlists: 2, Videos: 3, Stored: 4, Selected: 1, CreatedAt: base}
	if err := db.SaveLibraryStats(ctx, first); err != nil {
		t.Fatalf("SaveLibraryStats() error = %v", err)
	}

	// Same counters only move the timestamp.
	same := first
	same.CreatedAt = base.Add(time.Minute)
	if err := db.SaveLibraryStats(ctx, same); err != nil {
		t.Fatalf("SaveLibraryStats() error = %v", err)
	}

	changed := first
	changed.Videos = 10
	changed.CreatedAt = base.Add(2 * time.Minute)
	if err := db.SaveLibraryStats(ctx, changed); err != nil {
		t.Fatalf("SaveLibraryStats() error = %v", err)
	}

	history, err := db.LibraryStatsHistory(ctx, 0)
	if err != nil {
		t.Fatalf("LibraryStatsHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d rows, want 2", len(history))
	}
	if history[0].Videos != 10 || !history[0].CreatedAt.Equal(changed.CreatedAt) {
		t.Errorf("newest = %+v, want %+v", history[0], changed)
	}
	if !history[1].CreatedAt.Equal(same.CreatedAt) {
		t.Errorf("repeated snapshot timestamp = %v, want %v", history[1].CreatedAt, same.CreatedAt)
	}

	latest, err := db.LatestLibraryStats(ctx)
	if err != nil || latest.Videos != 10 {
		t.Errorf("LatestLibraryStats() = %+v, %v", latest, err)
	}
}
