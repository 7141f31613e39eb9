package models

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Cadence string

const (
	CadenceDaily    Cadence = "daily"
	CadenceWeekly   Cadence = "weekly"
	CadenceMonthly  Cadence = "monthly"
	CadenceInterval Cadence = "interval"
	CadenceCron     Cadence = "cron"
)

type ReportFormat string

const (
	FormatHTML ReportFormat = "HTML"
	FormatCSV  ReportFormat = "CSV"
	FormatJSON ReportFormat = "JSON"
)

type DeliveryChannel string

const (
	ChannelEmail DeliveryChannel = "email"
	ChannelSlack DeliveryChannel = "slack"
)

// ReportSchedule is one recurring report definition. NextDueAt is advanced
// only by the executor while it holds a valid claim, and never moves backward.
type ReportSchedule struct {
	gorm.Model
	Name        string          `json:"name" gorm:"uniqueIndex;not null"`
	Cadence     Cadence         `json:"cadence" gorm:"not null"`
	Every       time.Duration   `json:"every,omitempty"`     // interval cadence only
	CronExpr    string          `json:"cron_expr,omitempty"` // cron cadence only
	Format      ReportFormat    `json:"format" gorm:"default:HTML"`
	Channel     DeliveryChannel `json:"channel" gorm:"default:email"`
	Recipients  []string        `json:"recipients" gorm:"serializer:json"`
	Enabled     bool            `json:"enabled" gorm:"default:true"`
	NextDueAt   time.Time       `json:"next_due_at" gorm:"index"`
	LastRunAt   *time.Time      `json:"last_run_at,omitempty"`
	Description string          `json:"description"`
}

// Due reports whether the schedule is enabled and its due time has elapsed.
func (r *ReportSchedule) Due(now time.Time) bool {
	return r.Enabled && !r.NextDueAt.After(now)
}

// NextAfter returns the due time that follows prev for this schedule's
// cadence. The result is computed from prev (the scheduled time), not from
// the wall clock, so late runs do not drift the schedule.
func (r *ReportSchedule) NextAfter(prev time.Time) (time.Time, error) {
	switch r.Cadence {
	case CadenceDaily:
		return prev.AddDate(0, 0, 1), nil
	case CadenceWeekly:
		return prev.AddDate(0, 0, 7), nil
	case CadenceMonthly:
		return prev.AddDate(0, 1, 0), nil
	case CadenceInterval:
		if r.Every <= 0 {
			return time.Time{}, fmt.Errorf("report %q: interval cadence requires a positive duration", r.Name)
		}
		return prev.Add(r.Every), nil
	case CadenceCron:
		sched, err := cron.ParseStandard(r.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("report %q: invalid cron expression %q: %w", r.Name, r.CronExpr, err)
		}
		return sched.Next(prev), nil
	default:
		return time.Time{}, fmt.Errorf("report %q: unknown cadence %q", r.Name, r.Cadence)
	}
}

// Window returns the reporting window that ends at the given due time.
// For calendar cadences the window start is the previous cadence boundary.
func (r *ReportSchedule) Window(due time.Time) (time.Time, time.Time) {
	switch r.Cadence {
	case CadenceWeekly:
		return due.AddDate(0, 0, -7), due
	case CadenceMonthly:
		return due.AddDate(0, -1, 0), due
	case CadenceInterval:
		if r.Every > 0 {
			return due.Add(-r.Every), due
		}
	}
	// Daily, cron, and malformed intervals all report over the last day; a
	// cron schedule has no closed form for "previous fire".
	return due.AddDate(0, 0, -1), due
}
