package dates

import (
	"time"

	"github.com/vinceanalytics/dash/internal/timeutil"
)

// Service computes default and normalized ranges. Now is the only source of wall
// clock time, a nil Now uses time.Now.
type Service struct {
	Now func() time.Time
}

func New(now func() time.Time) *Service {
	return &Service{Now: now}
}

func (s *Service) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// DefaultRange returns the trailing window of slice that ends with the bucket
// holding the current time.
func (s *Service) DefaultRange(slice timeutil.Slice) (Range, error) {
	if err := slice.Validate(); err != nil {
		return Range{}, err
	}
	now := s.now()
	return Range{
		From: timeutil.Shift(slice, now, -(Lookback[slice] - 1)),
		To:   timeutil.End(slice, now),
	}, nil
}

// PrepareDateRange aligns from and to to the buckets of slice. An empty bound is
// replaced by the matching bound of DefaultRange.
func (s *Service) PrepareDateRange(from, to Date, slice timeutil.Slice) (Range, error) {
	if err := slice.Validate(); err != nil {
		return Range{}, err
	}
	var def Range
	if from.IsZero() || to.IsZero() {
		var err error
		def, err = s.DefaultRange(slice)
		if err != nil {
			return Range{}, err
		}
	}
	start := def.From
	if !from.IsZero() {
		ts, err := from.Parse()
		if err != nil {
			return Range{}, err
		}
		start = ts
	}
	end := def.To
	if !to.IsZero() {
		ts, err := to.Parse()
		if err != nil {
			return Range{}, err
		}
		end = ts
	}
	r := Range{From: start, To: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return Range{
		From: timeutil.Begin(slice, start),
		To:   timeutil.End(slice, end),
	}, nil
}

// Prepare is PrepareDateRange for string inputs.
func (s *Service) Prepare(from, to string, slice timeutil.Slice) (Range, error) {
	return s.PrepareDateRange(String(from), String(to), slice)
}
