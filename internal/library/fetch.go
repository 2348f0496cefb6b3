package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"video-shelf/internal/mediatypes"
)

// MetadataFetcher resolves a link into a Video.
type MetadataFetcher interface {
	Fetch(ctx context.Context, link string) (*Video, error)
}

// ErrUnsupportedLink is returned by fetchers for links they cannot handle.
var ErrUnsupportedLink = errors.New("unsupported link")

// IsRawVideo reports whether link ends in a raw video extension.
func IsRawVideo(link string) bool {
	return mediatypes.TypeOf(link) == mediatypes.FileTypeVideo
}

// FileMetadataFetcher handles links to raw video files. The title is the
// file name, the duration comes from ffprobe when available and the video
// itself is the thumbnail source.
type FileMetadataFetcher struct {
	// FFprobe is the ffprobe binary. Empty disables duration probing.
	FFprobe string
	Timeout time.Duration
	Now     func() time.Time
}

// NewFileMetadataFetcher returns a fetcher that probes with ffprobe from
// PATH when it is installed.
func NewFileMetadataFetcher() *FileMetadataFetcher {
	probe, err := exec.LookPath("ffprobe")
	if err != nil {
		probe = ""
	}
	return &FileMetadataFetcher{FFprobe: probe, Timeout: 30 * time.Second, Now: time.Now}
}

// Fetch implements MetadataFetcher.
func (f *FileMetadataFetcher) Fetch(ctx context.Context, link string) (*Video, error) {
	if !IsRawVideo(link) {
		return nil, fmt.Errorf("%s: %w", link, ErrUnsupportedLink)
	}

	base := link
	domain := "File"
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		base = u.Path
		domain = u.Hostname()
		if strings.Contains(strings.ToLower(domain), "discord") {
			domain = "Discord"
		}
	}
	title := strings.TrimSuffix(path.Base(base), path.Ext(base))
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	v := NewVideo(link, title)
	v.Added = now()
	v.UploaderDomain = domain
	v.ThumbnailURL = link

	if f.FFprobe != "" {
		d, err := f.probeDuration(ctx, link)
		if err != nil {
			return nil, err
		}
		v.Duration = d
	}
	return v, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FileMetadataFetcher) probeDuration(ctx context.Context, link string) (time.Duration, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		link,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}
	return parseProbeDuration(stdout.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if out.Format.Duration == "" {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

var linkPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+\b`)

const linkChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~:/?#[]@!$&'()*+,;="

// ExtractLinks returns the http(s) links found in free text, such as a
// clipboard paste, in order of appearance.
func ExtractLinks(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if !strings.ContainsRune(linkChars, r) || strings.ContainsRune(";,[]{}()'\"", r) {
			return ' '
		}
		return r
	}, text)

	var links []string
	for _, m := range linkPattern.FindAllString(cleaned, -1) {
		if strings.HasPrefix(strings.ToLower(m), "www.") {
			m = "https://" + m
		}
		links = append(links, m)
	}
	return links
}
