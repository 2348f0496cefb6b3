package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// statsRetention is the number of library_stats rows kept.
const statsRetention = 1000

// LibraryStats is one snapshot of the library counters.
type LibraryStats struct {
	Folders   int       `json:"folders"`
	Playlists int       `json:"playlists"`
	Videos    int       `json:"videos"`
	Stored    int       `json:"stored"`
	Selected  int       `json:"selected"`
	Dirty     int       `json:"dirty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveLibraryStats appends a snapshot and trims old ones. A snapshot equal
// to the latest one only refreshes its timestamp.
func (d *Database) SaveLibraryStats(ctx context.Context, s LibraryStats) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_library_stats", start, err) }()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		id   int64
		last LibraryStats
	)
	row := tx.QueryRowContext(ctx, `
		SELECT id, folders, playlists, videos, stored, selected, dirty
		FROM library_stats ORDER BY id DESC LIMIT 1
	`)
	scanErr := row.Scan(&id, &last.Folders, &last.Playlists, &last.Videos, &last.Stored, &last.Selected, &last.Dirty)
	if scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows) {
		return scanErr
	}

	last.CreatedAt = s.CreatedAt
	if scanErr == nil && last == s {
		_, err = tx.ExecContext(ctx, "UPDATE library_stats SET created_at = ? WHERE id = ?", s.CreatedAt.Unix(), id)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO library_stats (folders, playlists, videos, stored, selected, dirty, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.Folders, s.Playlists, s.Videos, s.Stored, s.Selected, s.Dirty, s.CreatedAt.Unix())
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM library_stats
		WHERE id <= (SELECT MAX(id) FROM library_stats) - ?
	`, statsRetention)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// LatestLibraryStats returns the most recent snapshot, or ErrNotFound.
func (d *Database) LatestLibraryStats(ctx context.Context) (LibraryStats, error) {
	history, err := d.LibraryStatsHistory(ctx, 1)
	if err != nil {
		return LibraryStats{}, err
	}
	if len(history) == 0 {
		return LibraryStats{}, ErrNotFound
	}
	return history[0], nil
}

// LibraryStatsHistory returns up to limit snapshots, newest first.
func (d *Database) LibraryStatsHistory(ctx context.Context, limit int) (stats []LibraryStats, err error) {
	start := time.Now()
	defer func() { recordQuery("library_stats_history", start, err) }()

	if limit <= 0 {
		limit = statsRetention
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT folders, playlists, videos, stored, selected, dirty, created_at
		FROM library_stats ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s       LibraryStats
			created int64
		)
		if err := rows.Scan(&s.Folders, &s.Playlists, &s.Videos, &s.Stored, &s.Selected, &s.Dirty, &created); err != nil {
			return nil, err
		}
		s.CreatedAt = time.Unix(created, 0)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
