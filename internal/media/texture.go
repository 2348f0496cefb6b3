package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"sync"

	"video-shelf/internal/logging"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when encoding thumbnails and textures.
const DefaultJPEGQuality = 85

// Texture is a decoded thumbnail. A loaded texture holds pixels; once
// promoted it holds the encoded JPEG instead.
type Texture struct {
	Source string
	Width  int
	Height int

	mu      sync.RWMutex
	pixels  *image.NRGBA
	encoded []byte
}

// NewTexture wraps decoded pixels loaded from source.
func NewTexture(source string, img image.Image) *Texture {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Texture{Source: source, Width: b.Dx(), Height: b.Dy(), pixels: nrgba}
}

// EncodedTexture wraps an already encoded JPEG.
func EncodedTexture(source string, width, height int, data []byte) *Texture {
	return &Texture{Source: source, Width: width, Height: height, encoded: data}
}

// Image returns the decoded pixels, or nil once promoted or released.
func (t *Texture) Image() image.Image {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pixels == nil {
		return nil
	}
	return t.pixels
}

// Bytes returns the encoded JPEG, or nil until promoted.
func (t *Texture) Bytes() []byte {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.encoded
}

// Promoted reports whether the texture is ready to be served.
func (t *Texture) Promoted() bool {
	return len(t.Bytes()) > 0
}

func (t *Texture) release() {
	t.mu.Lock()
	t.pixels = nil
	t.encoded = nil
	t.mu.Unlock()
}

// TextureLoader decodes cache keys into textures. A key is either a local
// file path or an http(s) URL.
type TextureLoader struct {
	Client *http.Client
	// Width bounds the decoded width. Zero keeps the constrained size.
	Width int
	// UseVips decodes with libvips when it is available.
	UseVips     bool
	MaxDownload int64
}

// NewTextureLoader returns a loader bounding textures to width.
func NewTextureLoader(width int, useVips bool) *TextureLoader {
	return &TextureLoader{
		Client:      http.DefaultClient,
		Width:       width,
		UseVips:     useVips,
		MaxDownload: MaxDownloadBytes,
	}
}

// IsRemote reports whether key is fetched over HTTP.
func IsRemote(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load implements cache.Loader.
func (l *TextureLoader) Load(ctx context.Context, key string) (*Texture, error) {
	if key == "" {
		return nil, fmt.Errorf("empty texture key")
	}

	var (
		img image.Image
		err error
	)
	if IsRemote(key) {
		img, err = l.loadRemote(ctx, key)
	} else {
		img, err = l.loadFile(key)
	}
	if err != nil {
		return nil, err
	}
	return NewTexture(key, FitWidth(img, l.Width)), nil
}

func (l *TextureLoader) loadFile(path string) (image.Image, error) {
	if l.UseVips && IsVipsAvailable() {
		img, err := LoadImageWithVips(path, l.Width)
		if err == nil {
			return img, nil
		}
		logging.Debug("Vips failed for %s, falling back to imaging: %v", path, err)
	}
	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("load texture %s: %w", path, err)
	}
	return img, nil
}

func (l *TextureLoader) loadRemote(ctx context.Context, url string) (image.Image, error) {
	data, err := download(ctx, l.Client, url, l.MaxDownload)
	if err != nil {
		return nil, err
	}
	if l.UseVips && IsVipsAvailable() {
		img, err := DecodeWithVips(data, l.Width)
		if err == nil {
			return img, nil
		}
		logging.Debug("Vips failed for %s, falling back to imaging: %v", url, err)
	}
	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("load texture %s: %w", url, err)
	}
	return img, nil
}

// download fetches url, bounded by limit bytes.
func download(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if limit <= 0 {
		limit = MaxDownloadBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close response body for %s: %v", url, err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}
	data, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return data, nil
}

// Presenter promotes loaded textures by encoding them as JPEG. It
// implements cache.Promoter.
type Presenter struct {
	Quality int
}

// Promote encodes the pixels of t into a new, promoted texture and drops
// the pixels of t.
func (p Presenter) Promote(t *Texture) (*Texture, error) {
	if t == nil {
		return nil, fmt.Errorf("nil texture")
	}
	if t.Promoted() {
		return t, nil
	}
	img := t.Image()
	if img == nil {
		return nil, fmt.Errorf("texture %s has no pixels", t.Source)
	}

	data, err := encodeJPEG(img, p.Quality)
	if err != nil {
		return nil, fmt.Errorf("encode texture %s: %w", t.Source, err)
	}
	t.release()
	return EncodedTexture(t.Source, t.Width, t.Height, data), nil
}

// Release drops the buffers of t.
func (p Presenter) Release(t *Texture) {
	if t != nil {
		t.release()
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
