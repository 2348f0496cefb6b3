package library

import (
	"encoding/json"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"video-shelf/internal/filesystem"
)

// Video is a reference to a remote or local video. Identity is the URL and
// its 64-bit hash; two Videos with the same URL are equal regardless of the
// other attributes.
//
// Metadata fields are set before the video is added to a playlist and are
// treated as read-only afterwards. The thumbnail file name and the list
// position may change at any time and are safe for concurrent access.
type Video struct {
	Title          string
	Duration       time.Duration
	Uploaded       time.Time
	Added          time.Time
	UploaderName   string
	UploaderURL    string
	UploaderDomain string
	ThumbnailURL   string

	url  string
	hash uint64

	thumbnailFile atomic.Pointer[string]
	pos           atomic.Int64
	owner         atomic.Pointer[Playlist]
}

// NewVideo returns a video for url with the given title.
func NewVideo(url, title string) *Video {
	v := &Video{Title: title, Added: time.Now()}
	v.SetURL(url)
	v.pos.Store(-1)
	return v
}

// HashURL returns the identity hash used for url.
func HashURL(url string) uint64 {
	return xxhash.Sum64String(url)
}

// URL returns the video URL.
func (v *Video) URL() string { return v.url }

// Hash returns the identity hash of the URL.
func (v *Video) Hash() uint64 { return v.hash }

// SetURL changes the URL and recomputes the hash. Must not be called once
// the video is stored in a playlist.
func (v *Video) SetURL(url string) {
	v.url = url
	v.hash = HashURL(url)
}

// Equal reports whether v and o refer to the same URL.
func (v *Video) Equal(o *Video) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.hash == o.hash && v.url == o.url
}

// Valid reports whether the video has the minimum data to be stored.
func (v *Video) Valid() bool {
	return v != nil && v.Title != "" && v.url != ""
}

// ThumbnailFile returns the name of the cached thumbnail inside the owning
// playlist's thumbnail directory, or "" when none has been created.
func (v *Video) ThumbnailFile() string {
	if p := v.thumbnailFile.Load(); p != nil {
		return *p
	}
	return ""
}

// SetThumbnailFile records the cached thumbnail name.
func (v *Video) SetThumbnailFile(name string) {
	v.thumbnailFile.Store(&name)
}

// ThumbnailPath returns the absolute path of the cached thumbnail, or ""
// when the video has no thumbnail or no owning playlist.
func (v *Video) ThumbnailPath() string {
	name := v.ThumbnailFile()
	p := v.Playlist()
	if name == "" || p == nil {
		return ""
	}
	return filepath.Join(p.ThumbnailDir(), name)
}

// HasThumbnail reports whether the cached thumbnail exists on disk.
func (v *Video) HasThumbnail() bool {
	path := v.ThumbnailPath()
	if path == "" {
		return false
	}
	_, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil
}

// Playlist returns the playlist that stores this video, if any.
func (v *Video) Playlist() *Playlist {
	return v.owner.Load()
}

// ListIndex implements collection.Indexed.
func (v *Video) ListIndex() int { return int(v.pos.Load()) }

// SetListIndex implements collection.Indexed.
func (v *Video) SetListIndex(i int) { v.pos.Store(int64(i)) }

// Clone returns a copy of the persisted attributes with no owner.
func (v *Video) Clone() *Video {
	c := &Video{
		Title:          v.Title,
		Duration:       v.Duration,
		Uploaded:       v.Uploaded,
		Added:          v.Added,
		UploaderName:   v.UploaderName,
		UploaderURL:    v.UploaderURL,
		UploaderDomain: v.UploaderDomain,
		ThumbnailURL:   v.ThumbnailURL,
		url:            v.url,
		hash:           v.hash,
	}
	if name := v.ThumbnailFile(); name != "" {
		c.SetThumbnailFile(name)
	}
	c.pos.Store(-1)
	return c
}

type videoJSON struct {
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds float64   `json:"durationSeconds"`
	Uploaded        time.Time `json:"uploaded"`
	Added           time.Time `json:"added"`
	UploaderName    string    `json:"uploaderName,omitempty"`
	UploaderURL     string    `json:"uploaderUrl,omitempty"`
	UploaderDomain  string    `json:"uploaderDomain,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	ThumbnailFile   string    `json:"thumbnailFile,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v *Video) MarshalJSON() ([]byte, error) {
	return json.Marshal(videoJSON{
		Title:           v.Title,
		URL:             v.url,
		DurationSeconds: v.Duration.Seconds(),
		Uploaded:        v.Uploaded,
		Added:           v.Added,
		UploaderName:    v.UploaderName,
		UploaderURL:     v.UploaderURL,
		UploaderDomain:  v.UploaderDomain,
		ThumbnailURL:    v.ThumbnailURL,
		ThumbnailFile:   v.ThumbnailFile(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Video) UnmarshalJSON(data []byte) error {
	var j videoJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	v.Title = j.Title
	v.SetURL(j.URL)
	v.Duration = time.Duration(j.DurationSeconds * float64(time.Second))
	v.Uploaded = j.Uploaded
	v.Added = j.Added
	v.UploaderName = j.UploaderName
	v.UploaderURL = j.UploaderURL
	v.UploaderDomain = j.UploaderDomain
	v.ThumbnailURL = j.ThumbnailURL
	if j.ThumbnailFile != "" {
		v.SetThumbnailFile(j.ThumbnailFile)
	}
	v.pos.Store(-1)
	return nil
}

type videoKey struct {
	hash uint64
	url  string
}

func (v *Video) key() videoKey {
	return videoKey{hash: v.hash, url: v.url}
}

// Distinct returns videos with later duplicates removed, keeping the order
// of first occurrence.
func Distinct(videos []*Video) []*Video {
	seen := make(map[videoKey]struct{}, len(videos))
	out := make([]*Video, 0, len(videos))
	for _, v := range videos {
		k := v.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
