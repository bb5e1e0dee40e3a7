package klient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vinceanalytics/dash/internal/caches"
	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/project"
	"github.com/vinceanalytics/dash/internal/timeline"
	"github.com/vinceanalytics/dash/internal/timeutil"
)

// DefaultLimit is used by the aggregated reads when no positive limit is given.
const DefaultLimit = 10

// Counts are the project wide totals shown on top of the dashboard.
type Counts struct {
	Events             int64   `json:"eventsCount"`
	Visits             int64   `json:"visitsCount"`
	SessionsVisits     int64   `json:"sessionsVisitsCount"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	FirstEventDate     string  `json:"firstEventDate,omitempty"`
	FirstViewDate      string  `json:"firstViewDate,omitempty"`
}

// Aggregated is one row of the pages or websites breakdown.
type Aggregated struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// Kind names the built in timelines.
type Kind string

const (
	Visits    Kind = "visits"
	Sessions  Kind = "sessions"
	Referrers Kind = "referrers"
)

func (k Kind) Validate() error {
	switch k {
	case Visits, Sessions, Referrers:
		return nil
	default:
		return fmt.Errorf("klient: unknown timeline %q", string(k))
	}
}

// Counts returns the aggregate counters of the project.
func (c *Client) Counts(ctx context.Context, p project.Active) (*Counts, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return caches.Get(ctx, c.cache, "counts:"+p.ID, func(ctx context.Context) (*Counts, error) {
		var o Counts
		ok, err := c.do(ctx, call{
			name:   "counts",
			method: http.MethodGet,
			url:    c.url("metrics", p.ID, "counts"),
		}, &o)
		if err != nil || !ok {
			return nil, err
		}
		return &o, nil
	})
}

// FirstInteraction reports whether the project has received any event yet.
func (c *Client) FirstInteraction(ctx context.Context, p project.Active) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	return caches.Get(ctx, c.cache, "first_interaction:"+p.ID, func(ctx context.Context) (bool, error) {
		var o bool
		_, err := c.do(ctx, call{
			name:   "first_interaction",
			method: http.MethodGet,
			url:    c.url("metrics", p.ID, "first_interaction"),
		}, &o)
		return o, err
	})
}

// TimelineAdvanced fetches the raw points of a timeline endpoint between from and
// to. Empty bounds take the default range of slice. extra is merged into the request
// body, it cannot replace slice, from or to.
func (c *Client) TimelineAdvanced(ctx context.Context, p project.Active, endpoint string, slice timeutil.Slice, from, to dates.Date, extra map[string]any) ([]timeline.Point, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, fmt.Errorf("klient: missing timeline endpoint")
	}
	r, err := c.dates.PrepareDateRange(from, to, slice)
	if err != nil {
		return nil, err
	}
	body := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["slice"] = slice
	body["from"] = dates.Format(r.From)
	body["to"] = dates.Format(r.To)

	var o []timeline.Point
	_, err = c.do(ctx, call{
		name:   "timeline",
		method: http.MethodPost,
		url:    c.url("metrics", p.ID, "timeline", endpoint),
		body:   body,
	}, &o)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Timeline fetches one of the built in timelines.
func (c *Client) Timeline(ctx context.Context, p project.Active, kind Kind, slice timeutil.Slice, from, to dates.Date) ([]timeline.Point, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return c.TimelineAdvanced(ctx, p, string(kind), slice, from, to, nil)
}

// ReferrersTimeline fetches the timeline of visits coming from referrer.
func (c *Client) ReferrersTimeline(ctx context.Context, p project.Active, referrer string, slice timeutil.Slice, from, to dates.Date) ([]timeline.Point, error) {
	return c.TimelineAdvanced(ctx, p, string(Referrers), slice, from, to, map[string]any{
		"referrer": referrer,
	})
}

// TimelineDataRaw asks the backend for a timeline over its own default range. A nil
// response means the backend had nothing to return.
func (c *Client) TimelineDataRaw(ctx context.Context, p project.Active, endpoint string, slice timeutil.Slice) (*timeline.Response, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := slice.Validate(); err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, fmt.Errorf("klient: missing timeline endpoint")
	}
	var o timeline.Response
	ok, err := c.do(ctx, call{
		name:   "timeline",
		method: http.MethodPost,
		url:    c.url("metrics", p.ID, "timeline", endpoint),
		body:   map[string]any{"slice": slice},
	}, &o)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

// TimelineData is TimelineDataRaw with every missing bucket filled in. It returns a
// nil series when the backend returned nothing.
func (c *Client) TimelineData(ctx context.Context, p project.Active, endpoint string, slice timeutil.Slice) (timeline.Series, error) {
	raw, err := c.TimelineDataRaw(ctx, p, endpoint, slice)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return timeline.Fix(raw, slice)
}

// PagesData returns the most visited pages of website.
func (c *Client) PagesData(ctx context.Context, p project.Active, website string, limit int) ([]Aggregated, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := fmt.Sprintf("%s:pages_data:%s:%d", p.ID, website, limit)
	return caches.Get(ctx, c.cache, key, func(ctx context.Context) ([]Aggregated, error) {
		var o []Aggregated
		_, err := c.do(ctx, call{
			name:   "pages",
			method: http.MethodGet,
			url:    c.url("metrics", p.ID, "data", "pages"),
			headers: map[string]string{
				"x-query-limit":  strconv.Itoa(limit),
				"x-website-name": website,
			},
		}, &o)
		return o, err
	})
}

// WebsitesData returns the most visited websites of the project within its snapshot.
func (c *Client) WebsitesData(ctx context.Context, p project.Active, limit int) ([]Aggregated, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	from, to := p.SnapshotFrom(), p.SnapshotTo()
	key := fmt.Sprintf("%s:websites_data:%d:%s:%s", p.ID, limit, from, to)
	return caches.Get(ctx, c.cache, key, func(ctx context.Context) ([]Aggregated, error) {
		var o []Aggregated
		_, err := c.do(ctx, call{
			name:   "websites",
			method: http.MethodGet,
			url:    c.url("metrics", p.ID, "data", "websites"),
			headers: map[string]string{
				"x-query-limit": strconv.Itoa(limit),
				"x-from":        from,
				"x-to":          to,
			},
		}, &o)
		return o, err
	})
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
