package search

import (
	"testing"
	"time"
)

func TestParseDurationFilter(t *testing.T) {
	tests := []struct {
		text   string
		want   DurationFilter
		wantOK bool
	}{
		{"90", DurationFilter{LessThan, 90 * time.Second}, true},
		{"5:00", DurationFilter{LessThan, 5 * time.Minute}, true},
		{">1:02:03", DurationFilter{GreaterThan, time.Hour + 2*time.Minute + 3*time.Second}, true},
		{"> 4:30 min", DurationFilter{GreaterThan, 4*time.Minute + 30*time.Second}, true},
		{"10:", DurationFilter{LessThan, 10 * time.Minute}, true},
		{"", DurationFilter{}, false},
		{">", DurationFilter{}, false},
		{"long", DurationFilter{}, false},
		{"1:2:3:4", DurationFilter{}, false},
		{"99999999999999999999", DurationFilter{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDurationFilter(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDurationFilter(%q) = %+v, %v; want %+v, %v", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDurationFilterIsStrict(t *testing.T) {
	less := DurationFilter{LessThan, time.Minute}
	more := DurationFilter{GreaterThan, time.Minute}
	if less.Match(time.Minute) || more.Match(time.Minute) {
		t.Error("bound itself should not match")
	}
	if !less.Match(59*time.Second) || !more.Match(61*time.Second) {
		t.Error("values on the right side should match")
	}
}

func TestParseDateFilter(t *testing.T) {
	date := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		text   string
		want   DateFilter
		wantOK bool
	}{
		{"2019", DateFilter{LessThan, date(2019, 1, 1)}, true},
		{"2019-06", DateFilter{LessThan, date(2019, 6, 1)}, true},
		{">2020-02-29", DateFilter{GreaterThan, date(2020, 2, 29)}, true},
		{"> 2021/03", DateFilter{}, false},
		{"2021-02-30", DateFilter{}, false},
		{"2020-13", DateFilter{}, false},
		{"2020-1-1-1", DateFilter{}, false},
		{"recent", DateFilter{}, false},
		{"", DateFilter{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDateFilter(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseDateFilter(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && (got.Comparison != tt.want.Comparison || !got.Bound.Equal(tt.want.Bound)) {
				t.Errorf("ParseDateFilter(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDateFilterIsStrict(t *testing.T) {
	bound := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	before := DateFilter{LessThan, bound}
	after := DateFilter{GreaterThan, bound}
	if before.Match(bound) || after.Match(bound) {
		t.Error("bound itself should not match")
	}
	if !before.Match(bound.Add(-time.Hour)) || !after.Match(bound.Add(time.Hour)) {
		t.Error("dates on the right side should match")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"title", TitleAsc, false},
		{"title-desc", TitleDesc, false},
		{"-uploader", UploaderDesc, false},
		{"Length", DurationAsc, false},
		{"duration-asc", DurationAsc, false},
		{"date-desc", DateDesc, false},
		{"popularity", TitleAsc, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrder(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, o := range Orders {
		back, err := ParseOrder(o.String())
		if err != nil || back != o {
			t.Errorf("ParseOrder(%q) = %v, %v", o.String(), back, err)
		}
		if o.Reverse().Reverse() != o || o.Reverse().Descending() == o.Descending() {
			t.Errorf("%v.Reverse() is inconsistent", o)
		}
	}
}
