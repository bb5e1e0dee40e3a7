// Package timeutil defines the time slices understood by the metrics backend and
// the bucket arithmetic built on them. All operations first convert to UTC.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Slice is the width of a timeline bucket.
type Slice string

const (
	Hour  Slice = "hour"
	Day   Slice = "day"
	Week  Slice = "week"
	Month Slice = "month"
	Year  Slice = "year"
)

var ErrInvalidSlice = errors.New("invalid slice")

// Slices lists every recognized slice from the finest to the coarsest.
var Slices = []Slice{Hour, Day, Week, Month, Year}

var calendar = &now.Config{
	WeekStartDay: time.Sunday,
	TimeLocation: time.UTC,
}

func ParseSlice(s string) (Slice, error) {
	x := Slice(strings.ToLower(strings.TrimSpace(s)))
	if err := x.Validate(); err != nil {
		return "", err
	}
	return x, nil
}

func (s Slice) Validate() error {
	switch s {
	case Hour, Day, Week, Month, Year:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrInvalidSlice, string(s))
	}
}

func (s Slice) String() string {
	return string(s)
}

// Begin returns the start of the bucket holding ts.
func Begin(s Slice, ts time.Time) time.Time {
	n := calendar.With(ts.UTC())
	switch s {
	case Hour:
		return n.BeginningOfHour()
	case Day:
		return n.BeginningOfDay()
	case Week:
		return n.BeginningOfWeek()
	case Month:
		return n.BeginningOfMonth()
	case Year:
		return n.BeginningOfYear()
	default:
		return ts.UTC()
	}
}

// End returns the last instant of the bucket holding ts.
func End(s Slice, ts time.Time) time.Time {
	n := calendar.With(ts.UTC())
	switch s {
	case Hour:
		return n.EndOfHour()
	case Day:
		return n.EndOfDay()
	case Week:
		return n.EndOfWeek()
	case Month:
		return n.EndOfMonth()
	case Year:
		return n.EndOfYear()
	default:
		return ts.UTC()
	}
}

// Next returns the start of the bucket following the one holding ts.
func Next(s Slice, ts time.Time) time.Time {
	return Shift(s, ts, 1)
}

// Shift moves n buckets away from the bucket holding ts and returns the start of
// the resulting bucket. Negative n moves backwards.
func Shift(s Slice, ts time.Time, n int) time.Time {
	b := Begin(s, ts)
	switch s {
	case Hour:
		return b.Add(time.Duration(n) * time.Hour)
	case Day:
		return b.AddDate(0, 0, n)
	case Week:
		return b.AddDate(0, 0, 7*n)
	case Month:
		return b.AddDate(0, n, 0)
	case Year:
		return b.AddDate(n, 0, 0)
	default:
		return b
	}
}
