package database

import (
	"context"
	"time"
)

// SaveSelection replaces the stored selection with paths, keeping their
// order. Paths are playlist locations relative to the library root.
func (d *Database) SaveSelection(ctx context.Context, paths []string) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_selection", start, err) }()

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

	if _, err = tx.ExecContext(ctx, "DELETE FROM selection"); err != nil {
		return err
	}
	for i, path := range paths {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO selection (position, path) VALUES (?, ?)
			ON CONFLICT(path) DO NOTHING
		`, i, path)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSelection returns the stored selection in order.
func (d *Database) LoadSelection(ctx context.Context) (paths []string, err error) {
	start := time.Now()
	defer func() { recordQuery("load_selection", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT path FROM selection ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
