package search

import (
	"strconv"
	"strings"
	"time"
)

// Query holds the raw text of every search field.
type Query struct {
	Title    string `json:"title"`
	Uploader string `json:"uploader"`
	Duration string `json:"duration"`
	Date     string `json:"date"`
}

// IsEmpty reports whether no field has text.
func (q Query) IsEmpty() bool {
	return q.Title == "" && q.Uploader == "" && q.Duration == "" && q.Date == ""
}

// Comparison selects which side of a filter bound a value must fall on.
// Both comparisons are strict.
type Comparison int

const (
	LessThan Comparison = iota
	GreaterThan
)

func (c Comparison) String() string {
	if c == GreaterThan {
		return ">"
	}
	return "<"
}

// comparisonOf returns GreaterThan when the text contains '>' anywhere.
func comparisonOf(text string) Comparison {
	if strings.Contains(text, ">") {
		return GreaterThan
	}
	return LessThan
}

// keepOnly drops every rune of s that is not in allowed.
func keepOnly(s, allowed string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(allowed, r) {
			return r
		}
		return -1
	}, s)
}

// nonEmptyParts splits s on sep and drops empty parts.
func nonEmptyParts(s, sep string) []string {
	var parts []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// DurationFilter keeps videos strictly shorter or longer than Bound.
type DurationFilter struct {
	Comparison Comparison
	Bound      time.Duration
}

// Match reports whether d passes the filter.
func (f DurationFilter) Match(d time.Duration) bool {
	if f.Comparison == GreaterThan {
		return d > f.Bound
	}
	return d < f.Bound
}

// ParseDurationFilter parses "[>]SS", "[>]MM:SS" or "[>]H:MM:SS". Characters
// other than digits and ':' are ignored after the comparison is taken. It
// returns false when no usable bound remains.
func ParseDurationFilter(text string) (DurationFilter, bool) {
	if strings.TrimSpace(text) == "" {
		return DurationFilter{}, false
	}
	f := DurationFilter{Comparison: comparisonOf(text)}

	digits := keepOnly(text, "0123456789:")
	colons := strings.Count(digits, ":")
	if colons > 2 {
		return DurationFilter{}, false
	}
	if colons == 0 {
		seconds, err := strconv.Atoi(digits)
		if err != nil {
			return DurationFilter{}, false
		}
		f.Bound = time.Duration(seconds) * time.Second
		return f, true
	}

	// Missing fields count as zero, filled from the left.
	parts := nonEmptyParts(digits, ":")
	values := make([]int, colons+1)
	for i := 0; i < len(values) && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return DurationFilter{}, false
		}
		values[i] = n
	}

	units := []time.Duration{time.Minute, time.Second}
	if colons == 2 {
		units = []time.Duration{time.Hour, time.Minute, time.Second}
	}
	for i, v := range values {
		f.Bound += time.Duration(v) * units[i]
	}
	return f, true
}

// DateFilter keeps videos uploaded strictly before or after Bound.
type DateFilter struct {
	Comparison Comparison
	Bound      time.Time
}

// Match reports whether t passes the filter.
func (f DateFilter) Match(t time.Time) bool {
	if f.Comparison == GreaterThan {
		return t.After(f.Bound)
	}
	return t.Before(f.Bound)
}

// ParseDateFilter parses "[>]YYYY[-MM[-DD]]" with missing parts set to 1.
// Characters other than digits and '-' are ignored after the comparison is
// taken. Dates that do not exist are rejected.
func ParseDateFilter(text string) (DateFilter, bool) {
	if strings.TrimSpace(text) == "" {
		return DateFilter{}, false
	}
	f := DateFilter{Comparison: comparisonOf(text)}

	digits := keepOnly(text, "0123456789-")
	if strings.Count(digits, "-") > 2 {
		return DateFilter{}, false
	}
	parts := nonEmptyParts(digits, "-")
	if len(parts) == 0 {
		return DateFilter{}, false
	}

	values := [3]int{1, 1, 1}
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return DateFilter{}, false
		}
		values[i] = n
	}

	year, month, day := values[0], values[1], values[2]
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return DateFilter{}, false
	}
	bound := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if bound.Day() != day {
		return DateFilter{}, false
	}
	f.Bound = bound
	return f, true
}
