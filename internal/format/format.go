// Package format turns flight timestamps and counters into display strings.
package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown wherever a value is missing or cannot be parsed.
const Placeholder = "--"

// layouts accepted for scheduled times, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Formatter renders scheduled times in one display zone.
type Formatter struct {
	loc *time.Location
}

// New returns a Formatter for loc. A nil loc means the local zone.
func New(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.Local
	}
	return Formatter{loc: loc}
}

// Location returns the display zone.
func (f Formatter) Location() *time.Location {
	if f.loc == nil {
		return time.Local
	}
	return f.loc
}

// ParseScheduled parses an ISO-8601 scheduled time. Values without a zone
// are read in the display zone.
func (f Formatter) ParseScheduled(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, f.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time renders value as "15:04", or Placeholder.
func (f Formatter) Time(value string) string {
	t, ok := f.ParseScheduled(value)
	if !ok {
		return Placeholder
	}
	return t.In(f.Location()).Format("15:04")
}

// Date renders value as "Jan 02", or Placeholder.
func (f Formatter) Date(value string) string {
	t, ok := f.ParseScheduled(value)
	if !ok {
		return Placeholder
	}
	return t.In(f.Location()).Format("Jan 02")
}

// Clock renders an instant as "15:04", or Placeholder when nil.
func (f Formatter) Clock(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.In(f.Location()).Format("15:04")
}

// Ago renders t relative to now ("3 minutes ago").
func Ago(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// OrPlaceholder returns s, or Placeholder when s is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
