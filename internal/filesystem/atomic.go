package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it over path, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	start := time.Now()
	volume := defaultResolver.Resolve(path)
	defer func() {
		if obs := observe(); obs != nil {
			obs.ObserveOperation(volume, "write", time.Since(start).Seconds(), err)
		}
	}()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MoveToTrash moves path into trashDir under a unique, timestamped name and
// returns the new location.
func MoveToTrash(path, trashDir string) (string, error) {
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return "", fmt.Errorf("create trash directory: %w", err)
	}

	target := filepath.Join(trashDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(path)))
	start := time.Now()
	err := os.Rename(path, target)
	if obs := observe(); obs != nil {
		obs.ObserveOperation(defaultResolver.Resolve(path), "rename", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return "", fmt.Errorf("move %s to trash: %w", path, err)
	}
	return target, nil
}

// SanitizeName replaces characters that are not allowed in file names on
// common filesystems with an underscore and trims surrounding spaces and dots.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}
