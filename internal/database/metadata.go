package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// Settings keys
const (
	KeySensitivity  = "fuzzy_sensitivity"
	KeySortOrder    = "sort_order"
	KeyLastAutosave = "last_autosave"
)

// ErrNotFound is returned for missing keys.
var ErrNotFound = sql.ErrNoRows

// Settings are the user preferences kept across restarts. Empty or zero
// fields mean "not set".
type Settings struct {
	// Sensitivity is nil when unset; 0 is a valid threshold.
	Sensitivity *float64 `json:"sensitivity,omitempty"`
	SortOrder   string   `json:"sortOrder,omitempty"`
}

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	start := time.Now()
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_metadata", start, nil)
		return "", ErrNotFound
	}
	recordQuery("get_metadata", start, err)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	recordQuery("set_metadata", start, err)
	return err
}

// LoadSettings reads the stored settings. Missing or unreadable values are
// left unset.
func (d *Database) LoadSettings(ctx context.Context) (Settings, error) {
	var s Settings

	value, err := d.GetMetadata(ctx, KeySensitivity)
	switch {
	case err == nil:
		if f, perr := strconv.ParseFloat(value, 64); perr == nil {
			s.Sensitivity = &f
		}
	case !errors.Is(err, ErrNotFound):
		return s, err
	}

	value, err = d.GetMetadata(ctx, KeySortOrder)
	switch {
	case err == nil:
		s.SortOrder = value
	case !errors.Is(err, ErrNotFound):
		return s, err
	}
	return s, nil
}

// SaveSettings stores the set fields of s.
func (d *Database) SaveSettings(ctx context.Context, s Settings) error {
	if s.Sensitivity != nil {
		if err := d.SetMetadata(ctx, KeySensitivity, strconv.FormatFloat(*s.Sensitivity, 'f', -1, 64)); err != nil {
			return err
		}
	}
	if s.SortOrder != "" {
		if err := d.SetMetadata(ctx, KeySortOrder, s.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

// GetLastAutosave returns the time of the last completed autosave pass.
// Returns zero time if never run.
func (d *Database) GetLastAutosave(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, KeyLastAutosave)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339, value)
}

// SetLastAutosave stores the time of the last completed autosave pass.
func (d *Database) SetLastAutosave(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, KeyLastAutosave, "")
	}
	return d.SetMetadata(ctx, KeyLastAutosave, t.UTC().Format(time.RFC3339))
}
