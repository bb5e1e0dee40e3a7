// Package project holds the read-only context every metrics request is scoped to.
package project

import (
	"errors"

	"github.com/vinceanalytics/dash/internal/dates"
)

var ErrNoProject = errors.New("no active project")

// Active is the project the dashboard is looking at together with the date range
// of its current snapshot. Values are passed to each call and never mutated.
type Active struct {
	ID       string
	Snapshot dates.Range
}

func (a Active) Validate() error {
	if a.ID == "" {
		return ErrNoProject
	}
	return nil
}

// SnapshotFrom returns the snapshot start as sent in request headers.
func (a Active) SnapshotFrom() string {
	if a.Snapshot.From.IsZero() {
		return ""
	}
	return dates.Format(a.Snapshot.From)
}

// SnapshotTo returns the snapshot end as sent in request headers.
func (a Active) SnapshotTo() string {
	if a.Snapshot.To.IsZero() {
		return ""
	}
	return dates.Format(a.Snapshot.To)
}
