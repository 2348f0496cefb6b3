package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"video-shelf/internal/filesystem"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

const (
	// DefaultThumbnailWidth is the width of generated thumbnails.
	DefaultThumbnailWidth = 256

	// maxTitleRunes bounds the title part of thumbnail file names.
	maxTitleRunes = 100

	snapshotOffset = "0.5"
)

// ErrFFmpegUnavailable is returned when a raw video needs a snapshot and no
// ffmpeg binary was found.
var ErrFFmpegUnavailable = errors.New("ffmpeg not available")

// Submitter runs thumbnail jobs on the worker pool.
type Submitter interface {
	TrySubmit(job func()) bool
	Submit(ctx context.Context, job func()) error
}

// Throttle holds back work while memory is short.
type Throttle interface {
	WaitIfPaused(ctx context.Context) error
}

// Generator creates thumbnail files for stored videos.
type Generator struct {
	Width       int
	Quality     int
	Client      *http.Client
	FFmpeg      string
	Timeout     time.Duration
	MaxDownload int64
	// Throttle is optional.
	Throttle Throttle

	inFlight sync.Map // thumbKey -> struct{}
}

type thumbKey struct {
	playlist *library.Playlist
	hash     uint64
}

// NewGenerator returns a generator producing width-pixel thumbnails, using
// ffmpeg from PATH when it is installed.
func NewGenerator(width int) *Generator {
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		logging.Warn("ffmpeg not found, thumbnails of video files are disabled")
		ffmpeg = ""
	}
	return &Generator{
		Width:       width,
		Quality:     DefaultJPEGQuality,
		Client:      &http.Client{Timeout: 30 * time.Second},
		FFmpeg:      ffmpeg,
		Timeout:     30 * time.Second,
		MaxDownload: MaxDownloadBytes,
	}
}

// FileName returns the thumbnail file name of v: the sanitised title
// followed by the URL hash.
func FileName(v *library.Video) string {
	title := filesystem.SanitizeName(v.Title)

	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	title = strings.Trim(title, " .")
	if title == "" {
		title = "video"
	}
	return fmt.Sprintf("%s_%016x.jpg", title, v.Hash())
}

// Generate writes the thumbnail of v into the thumbnail directory of p and
// records the file name on v. Videos without a thumbnail source or with an
// existing thumbnail are left alone.
func (g *Generator) Generate(ctx context.Context, p *library.Playlist, v *library.Video) error {
	if v.ThumbnailURL == "" || v.HasThumbnail() {
		return nil
	}

	source := "file"
	switch {
	case library.IsRawVideo(v.ThumbnailURL):
		source = "video"
	case IsRemote(v.ThumbnailURL):
		source = "remote"
	}

	start := time.Now()
	err := g.generate(ctx, p, v, source)
	metrics.ThumbnailGenerationDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("thumbnail for %s: %w", v.URL(), err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(source, "success").Inc()
	return nil
}

func (g *Generator) generate(ctx context.Context, p *library.Playlist, v *library.Video, source string) error {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var (
		img image.Image
		err error
	)
	switch source {
	case "video":
		img, err = g.snapshot(ctx, v.ThumbnailURL)
	case "remote":
		var data []byte
		data, err = download(ctx, g.Client, v.ThumbnailURL, g.MaxDownload)
		if err == nil {
			img, _, err = DecodeImage(data)
		}
	default:
		img, err = LoadImageConstrained(v.ThumbnailURL, MaxImageDimension, MaxImagePixels)
	}
	if err != nil {
		return err
	}

	data, err := encodeJPEG(FitWidth(img, g.width()), g.Quality)
	if err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	dir := p.ThumbnailDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}
	name := FileName(v)
	if err := filesystem.WriteFileAtomic(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}

	v.SetThumbnailFile(name)
	p.MarkDirty()
	logging.Debug("Created thumbnail %s (%s)", name, source)
	return nil
}

func (g *Generator) width() int {
	if g.Width <= 0 {
		return DefaultThumbnailWidth
	}
	return g.Width
}

// snapshot grabs one frame of a video file or URL. Videos shorter than the
// snapshot offset are retried from the first frame.
func (g *Generator) snapshot(ctx context.Context, src string) (image.Image, error) {
	if g.FFmpeg == "" {
		return nil, ErrFFmpegUnavailable
	}

	scale := fmt.Sprintf("scale=%d:-1", g.width())
	out, err := g.runFFmpeg(ctx, "-ss", snapshotOffset, "-i", src, "-frames:v", "1", "-vf", scale)
	if err != nil || len(out) == 0 {
		logging.Debug("FFmpeg snapshot at %ss failed for %s: %v, retrying from start", snapshotOffset, src, err)
		out, err = g.runFFmpeg(ctx, "-i", src, "-frames:v", "1", "-vf", scale)
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", src)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func (g *Generator) runFFmpeg(ctx context.Context, args ...string) ([]byte, error) {
	args = append([]string{"-v", "error"}, args...)
	args = append(args, "-f", "image2pipe", "-vcodec", "png", "-")
	cmd := exec.CommandContext(ctx, g.FFmpeg, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Hook returns a library.ThumbnailFunc that generates thumbnails on submit.
// Requests for a video already being generated are dropped. When the pool
// queue is full the job waits for room on its own goroutine.
func (g *Generator) Hook(ctx context.Context, submit Submitter) library.ThumbnailFunc {
	return func(p *library.Playlist, v *library.Video) {
		key := thumbKey{playlist: p, hash: v.Hash()}
		if _, busy := g.inFlight.LoadOrStore(key, struct{}{}); busy {
			return
		}

		job := func() {
			defer g.inFlight.Delete(key)
			if p.Removed() {
				return
			}
			if g.Throttle != nil {
				if err := g.Throttle.WaitIfPaused(ctx); err != nil {
					return
				}
			}
			if err := g.Generate(ctx, p, v); err != nil {
				logging.Warn("Failed to create thumbnail: %v", err)
			}
		}

		if submit == nil {
			go job()
			return
		}
		if submit.TrySubmit(job) {
			return
		}
		go func() {
			if err := submit.Submit(ctx, job); err != nil {
				g.inFlight.Delete(key)
				logging.Debug("Thumbnail job for %s dropped: %v", v.URL(), err)
			}
		}()
	}
}
