package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	MaxImageDimension = 4096

	// MaxImagePixels bounds the decoded pixel count (~80MB as NRGBA).
	MaxImagePixels = 20_000_000

	// MaxDownloadBytes bounds remote thumbnail downloads.
	MaxDownloadBytes = 20 << 20
)

// LoadImageConstrained decodes the image at path, downscaling it when it
// exceeds maxDimension or maxPixels.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("Could not get image dimensions for %s: %v, loading unconstrained", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return constrain(img, dimensions.Width, dimensions.Height, maxDimension, maxPixels), nil
}

// constrain downscales img (of size width x height) to fit both limits.
func constrain(img image.Image, width, height, maxDimension, maxPixels int) image.Image {
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return img
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}
	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Debug("Constraining large image from %dx%d to %dx%d", width, height, targetWidth, targetHeight)
	return imaging.Resize(img, max(targetWidth, 1), max(targetHeight, 1), imaging.Lanczos)
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// DecodeImage decodes an in-memory image in any registered format,
// applying EXIF orientation and the size constraints.
func DecodeImage(data []byte) (image.Image, string, error) {
	format := DetectFormat(data)
	metrics.ThumbnailDecodeByFormat.WithLabelValues(format).Inc()

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("unsupported %s image: %w", format, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, format, fmt.Errorf("decode %s image: %w", format, err)
	}
	return constrain(img, config.Width, config.Height, MaxImageDimension, MaxImagePixels), format, nil
}

// readLimited reads r fully, failing when it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return data, nil
}

// FitWidth scales img down to width, keeping the aspect ratio. Narrower
// images are returned unchanged.
func FitWidth(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// DetectFormat names the image format from its magic bytes.
func DetectFormat(header []byte) string {
	h := header
	switch {
	case len(h) >= 3 && h[0] == 0xFF && h[1] == 0xD8 && h[2] == 0xFF:
		return "jpeg"
	case len(h) >= 8 && h[0] == 0x89 && h[1] == 'P' && h[2] == 'N' && h[3] == 'G':
		return "png"
	case len(h) >= 4 && string(h[:4]) == "GIF8":
		return "gif"
	case len(h) >= 12 && string(h[:4]) == "RIFF" && string(h[8:12]) == "WEBP":
		return "webp"
	case len(h) >= 2 && h[0] == 'B' && h[1] == 'M':
		return "bmp"
	case len(h) >= 4 && (string(h[:4]) == "II*\x00" || string(h[:4]) == "MM\x00*"):
		return "tiff"
	case len(h) >= 12 && string(h[4:8]) == "ftyp":
		switch string(h[8:12]) {
		case "avif", "avis":
			return "avif"
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif"
		}
		return "mp4-container"
	}
	return "unknown"
}
