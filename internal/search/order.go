package search

import (
	"fmt"
	"strings"
)

// Order is the sort key and direction of the result list.
type Order int

const (
	TitleAsc Order = iota
	TitleDesc
	UploaderAsc
	UploaderDesc
	DurationAsc
	DurationDesc
	DateAsc
	DateDesc
)

var orderNames = [...]string{
	TitleAsc:     "title-asc",
	TitleDesc:    "title-desc",
	UploaderAsc:  "uploader-asc",
	UploaderDesc: "uploader-desc",
	DurationAsc:  "duration-asc",
	DurationDesc: "duration-desc",
	DateAsc:      "date-asc",
	DateDesc:     "date-desc",
}

// Orders lists every order in display order.
var Orders = []Order{TitleAsc, TitleDesc, UploaderAsc, UploaderDesc, DurationAsc, DurationDesc, DateAsc, DateDesc}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return fmt.Sprintf("Order(%d)", int(o))
	}
	return orderNames[o]
}

// Descending reports whether o sorts from high to low.
func (o Order) Descending() bool {
	return o%2 == 1
}

// Reverse returns the same key in the other direction.
func (o Order) Reverse() Order {
	if o.Descending() {
		return o - 1
	}
	return o + 1
}

// ParseOrder accepts "title-asc" style names, a bare key meaning ascending
// ("date") and a leading '-' meaning descending ("-date"). "length" is an
// alias of "duration".
func ParseOrder(s string) (Order, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	desc := false
	switch {
	case strings.HasPrefix(name, "-"):
		desc = true
		name = name[1:]
	case strings.HasSuffix(name, "-desc"):
		desc = true
		name = strings.TrimSuffix(name, "-desc")
	default:
		name = strings.TrimSuffix(name, "-asc")
	}

	var o Order
	switch name {
	case "title", "name":
		o = TitleAsc
	case "uploader":
		o = UploaderAsc
	case "duration", "length":
		o = DurationAsc
	case "date", "uploaded":
		o = DateAsc
	default:
		return TitleAsc, fmt.Errorf("unknown sort order %q", s)
	}
	if desc {
		o++
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
