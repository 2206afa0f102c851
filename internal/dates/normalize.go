// Package dates converts server supplied order timestamps into the
// YYYY-MM-DD form shown in the console.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the calendar form written into the order_date field.
const DisplayLayout = "2006-01-02"

// ErrInvalidDate is returned for empty or unparseable timestamps.
var ErrInvalidDate = errors.New("invalid date")

// zonedLayouts carry their own offset; the instant is converted to the target location.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

// localLayouts have no zone and are read as wall-clock time in the target location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	DisplayLayout,
	"01/02/2006",
}

// Normalizer renders timestamps as calendar dates in a fixed location.
type Normalizer struct {
	// Location used for the calendar interpretation. Nil means time.Local.
	Location *time.Location
}

// NewNormalizer creates a Normalizer for loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc}
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Normalize returns raw as YYYY-MM-DD in the normalizer's location.
// Already normalized input is returned unchanged.
func (n *Normalizer) Normalize(raw string) (string, error) {
	t, err := Parse(raw, n.location())
	if err != nil {
		return "", err
	}
	return t.Format(DisplayLayout), nil
}

// Parse reads raw using the accepted layouts. Zoned timestamps are converted
// to loc; zone-less ones are interpreted in loc.
func Parse(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
