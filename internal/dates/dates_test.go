package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinceanalytics/dash/internal/timeutil"
)

func fixed(s string) func() time.Time {
	ts, err := timeutil.Parse(s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func TestDefaultRange(t *testing.T) {
	svc := New(fixed("2024-03-14T15:09:26Z"))
	type Case struct {
		slice timeutil.Slice
		from  string
		to    string
	}
	cases := []Case{
		{timeutil.Hour, "2024-03-13T16:00:00.000Z", "2024-03-14T15:59:59.999Z"},
		{timeutil.Day, "2024-03-08T00:00:00.000Z", "2024-03-14T23:59:59.999Z"},
		{timeutil.Week, "2024-02-18T00:00:00.000Z", "2024-03-16T23:59:59.999Z"},
		{timeutil.Month, "2023-04-01T00:00:00.000Z", "2024-03-31T23:59:59.999Z"},
		{timeutil.Year, "2020-01-01T00:00:00.000Z", "2024-12-31T23:59:59.999Z"},
	}
	for _, k := range cases {
		r, err := svc.DefaultRange(k.slice)
		require.NoError(t, err, k.slice)
		require.Equal(t, k.from, Format(r.From), k.slice)
		require.Equal(t, k.to, Format(r.To), k.slice)
		require.False(t, r.From.After(r.To), k.slice)
		require.Equal(t, Lookback[k.slice], timeutil.Count(k.slice, r.From, r.To), k.slice)
	}

	_, err := svc.DefaultRange("minute")
	require.ErrorIs(t, err, ErrInvalidSlice)
}

func TestDefaultRangeUsesWallClock(t *testing.T) {
	var svc *Service
	r, err := svc.DefaultRange(timeutil.Day)
	require.NoError(t, err)
	require.True(t, r.To.After(time.Now()))
	require.NoError(t, r.Validate())
}

func TestPrepareDateRange(t *testing.T) {
	svc := New(fixed("2024-03-14T15:09:26Z"))

	r, err := svc.Prepare("2024-01-01T13:00:00Z", "2024-01-03T02:00:00Z", timeutil.Day)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T00:00:00.000Z", Format(r.From))
	require.Equal(t, "2024-01-03T23:59:59.999Z", Format(r.To))

	t.Run("idempotent", func(t *testing.T) {
		for _, s := range timeutil.Slices {
			first, err := svc.Prepare("2023-10-05T07:31:00Z", "2024-02-11T19:02:00Z", s)
			require.NoError(t, err, s)
			require.False(t, first.From.After(first.To), s)

			again, err := svc.PrepareDateRange(Time(first.From), Time(first.To), s)
			require.NoError(t, err, s)
			require.Equal(t, first, again, s)

			wire, err := svc.Prepare(Format(first.From), Format(first.To), s)
			require.NoError(t, err, s)
			require.Equal(t, first, wire, s)
		}
	})

	t.Run("same instant", func(t *testing.T) {
		r, err := svc.Prepare("2024-01-02", "2024-01-02", timeutil.Day)
		require.NoError(t, err)
		require.Equal(t, 1, timeutil.Count(timeutil.Day, r.From, r.To))
	})

	t.Run("swapped", func(t *testing.T) {
		_, err := svc.Prepare("2024-01-03", "2024-01-01", timeutil.Day)
		require.ErrorIs(t, err, ErrInvalidDateRange)

		_, err = svc.Prepare("2024-01-01T10:30:00Z", "2024-01-01T10:10:00Z", timeutil.Hour)
		require.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := svc.Prepare("last tuesday", "2024-01-01", timeutil.Day)
		require.ErrorIs(t, err, ErrInvalidDateFormat)
		_, err = svc.Prepare("2024-01-01", "soon", timeutil.Day)
		require.ErrorIs(t, err, ErrInvalidDateFormat)
	})

	t.Run("bad slice", func(t *testing.T) {
		_, err := svc.Prepare("2024-01-01", "2024-01-02", "decade")
		require.ErrorIs(t, err, ErrInvalidSlice)
	})

	t.Run("defaults", func(t *testing.T) {
		def, err := svc.DefaultRange(timeutil.Month)
		require.NoError(t, err)

		r, err := svc.PrepareDateRange(Date{}, Date{}, timeutil.Month)
		require.NoError(t, err)
		require.Equal(t, def, r)

		r, err = svc.PrepareDateRange(String("2024-01-15"), Date{}, timeutil.Month)
		require.NoError(t, err)
		require.Equal(t, "2024-01-01T00:00:00.000Z", Format(r.From))
		require.Equal(t, def.To, r.To)

		_, err = svc.PrepareDateRange(Date{}, String("2020-01-01"), timeutil.Month)
		require.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestRangeJSON(t *testing.T) {
	svc := New(fixed("2024-03-14T15:09:26Z"))
	r, err := svc.Prepare("2024-01-01", "2024-01-03", timeutil.Day)
	require.NoError(t, err)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"from":"2024-01-01T00:00:00.000Z","to":"2024-01-03T23:59:59.999Z"}`, string(b))

	var o Range
	require.NoError(t, json.Unmarshal(b, &o))
	require.Equal(t, r.From, o.From)
	require.Equal(t, Format(r.To), Format(o.To))

	require.ErrorIs(t, json.Unmarshal([]byte(`{"from":"x","to":"2024"}`), &o), ErrInvalidDateFormat)
}
