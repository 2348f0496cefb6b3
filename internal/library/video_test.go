package library

import (
	"encoding/json"
	"testing"
	"time"
)

func TestVideoEqualityIsByURL(t *testing.T) {
	a := NewVideo("https://example.com/v/1", "First")
	b := NewVideo("https://example.com/v/1", "Renamed")
	c := NewVideo("https://example.com/v/2", "First")

	if !a.Equal(b) {
		t.Error("videos with the same URL should be equal")
	}
	if a.Equal(c) {
		t.Error("videos with different URLs should not be equal")
	}
	if a.Hash() != HashURL("https://example.com/v/1") {
		t.Error("Hash() does not match HashURL")
	}

	b.SetURL("https://example.com/v/3")
	if a.Equal(b) {
		t.Error("SetURL did not change identity")
	}
}

func TestVideoValid(t *testing.T) {
	tests := []struct {
		name  string
		video *Video
		want  bool
	}{
		{"complete", NewVideo("https://x/1", "Title"), true},
		{"missing title", NewVideo("https://x/1", ""), false},
		{"missing url", NewVideo("", "Title"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.video.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVideoCloneDropsOwnerAndPosition(t *testing.T) {
	v := NewVideo("https://x/1", "Title")
	v.Duration = 90 * time.Second
	v.UploaderName = "Someone"
	v.SetThumbnailFile("Title_1.jpg")
	v.SetListIndex(4)

	c := v.Clone()
	if !c.Equal(v) || c.Title != v.Title || c.Duration != v.Duration || c.UploaderName != v.UploaderName {
		t.Errorf("clone differs: %+v", c)
	}
	if c.ThumbnailFile() != "Title_1.jpg" {
		t.Errorf("ThumbnailFile() = %q", c.ThumbnailFile())
	}
	if c.ListIndex() != -1 {
		t.Errorf("clone position = %d, want -1", c.ListIndex())
	}
	if c.Playlist() != nil {
		t.Error("clone should have no owner")
	}
}

func TestVideoJSON(t *testing.T) {
	uploaded := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	v := NewVideo("https://example.com/watch?v=abc", "A Video")
	v.Duration = 3*time.Minute + 20*time.Second
	v.Uploaded = uploaded
	v.UploaderDomain = "Youtube"
	v.SetThumbnailFile("A Video_1.jpg")

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["durationSeconds"] != float64(200) {
		t.Errorf("durationSeconds = %v, want 200", raw["durationSeconds"])
	}
	if raw["url"] != "https://example.com/watch?v=abc" {
		t.Errorf("url = %v", raw["url"])
	}

	var back Video
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(v) || back.Duration != v.Duration || !back.Uploaded.Equal(uploaded) || back.ThumbnailFile() != "A Video_1.jpg" {
		t.Errorf("decoded video differs: %+v", &back)
	}
	if back.ListIndex() != -1 {
		t.Errorf("decoded position = %d, want -1", back.ListIndex())
	}
}

func TestDistinctKeepsFirstOccurrence(t *testing.T) {
	a := NewVideo("https://x/a", "A")
	b := NewVideo("https://x/b", "B")
	a2 := NewVideo("https://x/a", "A again")

	got := Distinct([]*Video{a, b, a2, b})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Distinct() = %v", got)
	}
}
