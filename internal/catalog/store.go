// Package catalog provides access to report schedule definitions. The store
// is the only owner of ReportSchedule rows; the executor mutates NextDueAt
// and LastRunAt exclusively through Advance while holding a claim.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

var (
	// ErrUnavailable wraps any backing-store failure. Adapters fail loudly
	// rather than substituting placeholder data.
	ErrUnavailable = errors.New("report catalog unavailable")

	// ErrNotFound is returned when no schedule matches the given id.
	ErrNotFound = errors.New("report schedule not found")

	// ErrDueTimeRegression is returned when Advance would move a schedule's
	// due time backward.
	ErrDueTimeRegression = errors.New("next due time would move backward")
)

type Store interface {
	// Get returns one schedule by id.
	Get(ctx context.Context, id uint) (*models.ReportSchedule, error)

	// ListEnabled returns every enabled schedule.
	ListEnabled(ctx context.Context) ([]models.ReportSchedule, error)

	// ListDue returns enabled schedules with next_due_at <= now, ordered by
	// next_due_at then id so retries of a partial batch make consistent
	// progress. Pure read.
	ListDue(ctx context.Context, now time.Time) ([]models.ReportSchedule, error)

	// Advance moves a schedule forward after an execution attempt. nextDue
	// must not be earlier than the stored value. A nil lastRun leaves the
	// stored LastRunAt untouched (failed runs advance the schedule without
	// claiming a successful start).
	Advance(ctx context.Context, id uint, nextDue time.Time, lastRun *time.Time) error

	// SetEnabled flips the enabled flag.
	SetEnabled(ctx context.Context, id uint, enabled bool) error
}
