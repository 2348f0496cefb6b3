package library

import (
	"context"
	"encoding/json"
	"fmt"

	"video-shelf/internal/filesystem"
)

// VideoStore persists the contents of a playlist. The id is the playlist's
// file path.
type VideoStore interface {
	LoadVideos(ctx context.Context, id string) ([]*Video, error)
	SaveVideos(ctx context.Context, id string, videos []*Video) error
}

// FileStore keeps each playlist as an indented JSON array.
type FileStore struct {
	retry filesystem.RetryConfig
}

// NewFileStore returns a FileStore using the default NFS retry settings.
func NewFileStore() *FileStore {
	return &FileStore{retry: filesystem.DefaultRetryConfig()}
}

// LoadVideos reads the playlist file at id.
func (s *FileStore) LoadVideos(ctx context.Context, id string) ([]*Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := filesystem.ReadFileWithRetry(id, s.retry)
	if err != nil {
		return nil, fmt.Errorf("read playlist %s: %w", id, err)
	}

	var videos []*Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decode playlist %s: %w", id, err)
	}
	return videos, nil
}

// SaveVideos atomically replaces the playlist file at id.
func (s *FileStore) SaveVideos(ctx context.Context, id string, videos []*Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if videos == nil {
		videos = []*Video{}
	}

	data, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode playlist %s: %w", id, err)
	}
	if err := filesystem.WriteFileAtomic(id, data, 0o644); err != nil {
		return fmt.Errorf("write playlist %s: %w", id, err)
	}
	return nil
}
