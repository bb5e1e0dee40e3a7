// Package timeline turns sparse timeline responses from the metrics backend into
// dense series ready for charting.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/timeutil"
)

// MaxBuckets bounds the size of a normalized series.
const MaxBuckets = 1 << 16

var ErrTooManyBuckets = errors.New("too many buckets")

// Point is a single bucket of a timeline. ID is the bucket identifier.
type Point struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

type Series []Point

func (s Series) Total() (n int64) {
	for i := range s {
		n += s[i].Count
	}
	return
}

func (s Series) Counts() []int64 {
	o := make([]int64, len(s))
	for i := range s {
		o[i] = s[i].Count
	}
	return o
}

func (s Series) IDs() []string {
	o := make([]string, len(s))
	for i := range s {
		o[i] = s[i].ID
	}
	return o
}

// Response is the raw timeline returned by the backend. Data may have gaps and may
// contain buckets outside From and To.
type Response struct {
	Data []Point `json:"data"`
	From string  `json:"from"`
	To   string  `json:"to"`
}

// Fix returns the dense series covering every bucket of slice between resp.From and
// resp.To. Missing buckets have a zero count, points outside the range are dropped.
// A nil response yields a nil series and no error.
func Fix(resp *Response, slice timeutil.Slice) (Series, error) {
	if resp == nil {
		return nil, nil
	}
	if err := slice.Validate(); err != nil {
		return nil, err
	}
	from, err := timeutil.Parse(resp.From)
	if err != nil {
		return nil, fmt.Errorf("timeline from: %w", err)
	}
	to, err := timeutil.Parse(resp.To)
	if err != nil {
		return nil, fmt.Errorf("timeline to: %w", err)
	}
	return Fill(resp.Data, dates.Range{From: from, To: to}, slice)
}

// Fill is Fix for an already parsed range.
func Fill(data []Point, r dates.Range, slice timeutil.Slice) (Series, error) {
	if err := slice.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	size := timeutil.Count(slice, r.From, r.To)
	if size > MaxBuckets {
		return nil, fmt.Errorf("%w: %d %s buckets between %s and %s", ErrTooManyBuckets,
			size, slice, dates.Format(r.From), dates.Format(r.To))
	}
	first := timeutil.Begin(slice, r.From)
	last := timeutil.Begin(slice, r.To)

	counts := make(map[int64]int64, len(data))
	for i := range data {
		p := &data[i]
		ts, err := timeutil.ParseID(slice, p.ID)
		if err != nil {
			slog.Debug("dropping timeline point", "id", p.ID, "err", err.Error())
			continue
		}
		if ts.Before(first) || ts.After(last) {
			slog.Debug("dropping timeline point outside range", "id", p.ID)
			continue
		}
		if p.Count < 0 {
			slog.Debug("dropping timeline point with negative count", "id", p.ID, "count", p.Count)
			continue
		}
		counts[key(ts)] += p.Count
	}

	o := make(Series, 0, size)
	for ts := range timeutil.Buckets(slice, r.From, r.To) {
		o = append(o, Point{
			ID:    timeutil.ID(slice, ts),
			Count: counts[key(ts)],
		})
	}
	return o, nil
}

func key(ts time.Time) int64 {
	return ts.Unix()
}
