package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"video-shelf/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// ErrVipsUnavailable is returned by the vips loaders before InitVips.
var ErrVipsUnavailable = errors.New("libvips not available")

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogging returns a handler forwarding libvips messages to the
// application log and the libvips verbosity matching level.
func vipsLogging(level logging.LogLevel) (func(string, vips.LogLevel, string), vips.LogLevel) {
	var threshold vips.LogLevel
	switch level {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	default:
		threshold = vips.LogLevelCritical
	}

	return func(domain string, msgLevel vips.LogLevel, msg string) {
		switch {
		case msgLevel <= vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case msgLevel == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, threshold
}

// InitVips starts libvips. It must be called once at startup before
// TextureLoader.UseVips has any effect.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup.
	vips.LoggingSettings(vipsLogging(logging.GetLevel()))

	// Thumbnails are small; keep the operation cache modest.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      32 * 1024 * 1024,
		MaxCacheSize:     64,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources. libvips cannot be restarted in
// the same process.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes the image file at path with decode-time
// shrinking to at most width pixels wide.
func LoadImageWithVips(path string, width int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", path, err)
	}
	defer ref.Close()
	return shrinkWithVips(ref, width)
}

// DecodeWithVips is LoadImageWithVips for in-memory images.
func DecodeWithVips(data []byte, width int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to decode image: %w", err)
	}
	defer ref.Close()
	return shrinkWithVips(ref, width)
}

func shrinkWithVips(ref *vips.ImageRef, width int) (image.Image, error) {
	origWidth, origHeight := ref.Width(), ref.Height()
	if width > 0 && origWidth > width {
		height := max(origHeight*width/origWidth, 1)
		if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	logging.Debug("Vips shrank %dx%d to %dx%d", origWidth, origHeight, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}
