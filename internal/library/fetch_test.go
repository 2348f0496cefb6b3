package library

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestIsRawVideo(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://cdn.example.com/clip.mp4", true},
		{"https://cdn.example.com/clip.MKV?token=abc", true},
		{"/home/me/videos/holiday.webm", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://example.com/page.html", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			if got := IsRawVideo(tt.link); got != tt.want {
				t.Errorf("IsRawVideo(%q) = %v, want %v", tt.link, got, tt.want)
			}
		})
	}
}

func TestFileMetadataFetcher(t *testing.T) {
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &FileMetadataFetcher{Now: func() time.Time { return added }}

	tests := []struct {
		link   string
		title  string
		domain string
	}{
		{"https://cdn.example.com/videos/My%20Clip.mp4", "My Clip", "cdn.example.com"},
		{"https://cdn.discordapp.com/attachments/1/2/funny.webm", "funny", "Discord"},
		{"/srv/media/local.mkv", "local", "File"},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			v, err := f.Fetch(context.Background(), tt.link)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if v.Title != tt.title || v.UploaderDomain != tt.domain {
				t.Errorf("Fetch() title=%q domain=%q, want %q %q", v.Title, v.UploaderDomain, tt.title, tt.domain)
			}
			if v.ThumbnailURL != tt.link || !v.Added.Equal(added) || v.URL() != tt.link {
				t.Errorf("Fetch() = %+v", v)
			}
		})
	}

	if _, err := f.Fetch(context.Background(), "https://example.com/page"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("Fetch(page) error = %v, want ErrUnsupportedLink", err)
	}
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", `{"format": {"duration": "90.500000"}}`, 90500 * time.Millisecond, false},
		{"missing", `{"format": {}}`, 0, false},
		{"bad number", `{"format": {"duration": "n/a"}}`, 0, true},
		{"bad json", `not json`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProbeDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseProbeDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain",
			text: "check https://youtu.be/abc and http://vimeo.com/123",
			want: []string{"https://youtu.be/abc", "http://vimeo.com/123"},
		},
		{
			name: "www prefix",
			text: "www.example.com/watch",
			want: []string{"https://www.example.com/watch"},
		},
		{
			name: "punctuation stripped",
			text: `("https://a.com/x"), [https://b.com/y];`,
			want: []string{"https://a.com/x", "https://b.com/y"},
		},
		{
			name: "newline separated",
			text: "https://a.com/1\nhttps://a.com/2",
			want: []string{"https://a.com/1", "https://a.com/2"},
		},
		{name: "none", text: "no links here", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}
