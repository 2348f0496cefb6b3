package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"video-shelf/internal/logging"

	"github.com/disintegration/imaging"
)

const (
	// DomainIconDir holds the uploader domain icons inside the resource
	// directory.
	DomainIconDir = "Domain Icons"

	// PlaceholderFile is served while a thumbnail is loading.
	PlaceholderFile = "V4C.png"
)

// domainIcons maps lower-cased domain keywords to icon names.
var domainIcons = []struct {
	keyword string
	icon    string
}{
	{"youtube", "Youtube"},
	{"youtu.be", "Youtube"},
	{"vimeo", "Vimeo"},
	{"dailymotion", "Dailymotion"},
	{"streamable", "Streamable"},
	{"nicovideo", "NicoVideo"},
	{"nico.ms", "NicoVideo"},
	{"discord", "Discord"},
}

// DomainIconName returns the icon name for an uploader domain, or "" when
// the domain has no icon.
func DomainIconName(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return ""
	}
	for _, e := range domainIcons {
		if strings.Contains(d, e.keyword) {
			return e.icon
		}
	}
	return ""
}

// DomainIconPath returns the icon file for domain under resourceDir, falling
// back to the placeholder for unknown domains.
func DomainIconPath(resourceDir, domain string) string {
	name := DomainIconName(domain)
	if name == "" {
		return PlaceholderPath(resourceDir)
	}
	return filepath.Join(resourceDir, DomainIconDir, name+".png")
}

// PlaceholderPath returns the placeholder image file under resourceDir.
func PlaceholderPath(resourceDir string) string {
	return filepath.Join(resourceDir, PlaceholderFile)
}

// PlaceholderLoader returns a loader for the placeholder texture. The image
// at path is used when present; otherwise a flat 16:9 tile of the given
// width is generated. The result is already encoded.
func PlaceholderLoader(path string, width int) func(ctx context.Context) (*Texture, error) {
	return func(ctx context.Context) (*Texture, error) {
		if width <= 0 {
			width = DefaultThumbnailWidth
		}

		var img image.Image
		src, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
		switch {
		case err == nil:
			img = FitWidth(src, width)
		case errors.Is(err, os.ErrNotExist):
			logging.Debug("Placeholder %s not found, using a blank tile", path)
			img = imaging.New(width, max(width*9/16, 1), color.NRGBA{R: 48, G: 48, B: 48, A: 255})
		default:
			return nil, fmt.Errorf("load placeholder: %w", err)
		}

		data, err := encodeJPEG(img, DefaultJPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("encode placeholder: %w", err)
		}
		b := img.Bounds()
		return EncodedTexture(path, b.Dx(), b.Dy(), data), nil
	}
}
