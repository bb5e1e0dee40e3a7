// Package dates resolves caller supplied date ranges into ranges the metrics
// backend accepts.
//
// Every range returned here is aligned to the buckets of its slice: From is the
// start of the first bucket and To is the last instant of the final bucket. Aligned
// ranges are fixed points of PrepareDateRange.
package dates

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vinceanalytics/dash/internal/timeutil"
)

var (
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidDateFormat = timeutil.ErrInvalidDateFormat
	ErrInvalidSlice      = timeutil.ErrInvalidSlice
)

// Layout is how range bounds are written on the wire.
const Layout = "2006-01-02T15:04:05.000Z07:00"

// Lookback is the number of buckets covered by the default range of each slice.
var Lookback = map[timeutil.Slice]int{
	timeutil.Hour:  24,
	timeutil.Day:   7,
	timeutil.Week:  4,
	timeutil.Month: 12,
	timeutil.Year:  5,
}

type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r Range) Validate() error {
	if r.From.After(r.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange,
			Format(r.From), Format(r.To))
	}
	return nil
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"from": Format(r.From),
		"to":   Format(r.To),
	})
}

func (r *Range) UnmarshalJSON(b []byte) error {
	var o struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	from, err := timeutil.Parse(o.From)
	if err != nil {
		return err
	}
	to, err := timeutil.Parse(o.To)
	if err != nil {
		return err
	}
	r.From, r.To = from, to
	return nil
}

// Format writes ts in UTC with millisecond precision.
func Format(ts time.Time) string {
	return ts.UTC().Format(Layout)
}

// Date is a date input that is either already parsed or still a string. The zero
// value is empty and resolves to the default bound of a range.
type Date struct {
	ts  time.Time
	raw string
	set bool
}

func Time(ts time.Time) Date {
	return Date{ts: ts, set: !ts.IsZero()}
}

func String(s string) Date {
	return Date{raw: s, set: s != ""}
}

func (d Date) IsZero() bool {
	return !d.set
}

func (d Date) Parse() (time.Time, error) {
	if !d.ts.IsZero() {
		return d.ts.UTC(), nil
	}
	return timeutil.Parse(d.raw)
}

func (d Date) String() string {
	if !d.ts.IsZero() {
		return Format(d.ts)
	}
	return d.raw
}

func ParseDate(s string) (time.Time, error) {
	return timeutil.Parse(s)
}
