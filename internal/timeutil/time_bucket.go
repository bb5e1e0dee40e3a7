package timeutil

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDateFormat = errors.New("invalid date format")

var layouts = map[Slice]string{
	Hour:  "2006-01-02T15:04",
	Day:   time.DateOnly,
	Week:  time.DateOnly,
	Month: "2006-01",
	Year:  "2006",
}

// accepted in order, the first match wins.
var formats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02T15:04",
	"2006-01-02T15",
	time.DateOnly,
	"2006-01",
	"2006",
}

// Parse reads a date from s. Values without a zone are UTC. A run of more than four
// digits is taken as unix milliseconds.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDateFormat)
	}
	if len(s) > 4 && digits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDateFormat, s)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, f := range formats {
		if ts, err := time.ParseInLocation(f, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDateFormat, s)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ID formats the canonical identifier of the bucket holding ts.
func ID(s Slice, ts time.Time) string {
	layout, ok := layouts[s]
	if !ok {
		layout = time.RFC3339
	}
	return Begin(s, ts).Format(layout)
}

// ParseID returns the start of the bucket named by id. Besides the canonical layout
// of s, any value accepted by Parse is recognized.
func ParseID(s Slice, id string) (time.Time, error) {
	if layout, ok := layouts[s]; ok {
		if ts, err := time.ParseInLocation(layout, id, time.UTC); err == nil {
			return Begin(s, ts), nil
		}
	}
	ts, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return Begin(s, ts), nil
}

// Buckets yields the start of every bucket between from and to inclusive, in
// chronological order.
func Buckets(s Slice, from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if s.Validate() != nil || from.After(to) {
			return
		}
		t := Begin(s, from)
		for !t.After(to) {
			if !yield(t) {
				return
			}
			t = Next(s, t)
		}
	}
}

// Count returns the number of buckets Buckets yields for the same arguments.
func Count(s Slice, from, to time.Time) int {
	if s.Validate() != nil || from.After(to) {
		return 0
	}
	start := Begin(s, from)
	end := Begin(s, to)
	switch s {
	case Hour:
		return int(end.Sub(start)/time.Hour) + 1
	case Day:
		return int(end.Sub(start)/(24*time.Hour)) + 1
	case Week:
		return int(end.Sub(start)/(7*24*time.Hour)) + 1
	case Month:
		return (end.Year()-start.Year())*12 + int(end.Month()-start.Month()) + 1
	default:
		return end.Year() - start.Year() + 1
	}
}
