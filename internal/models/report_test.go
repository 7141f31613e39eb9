package models

import (
	"testing"
	"time"
)

func TestNextAfterVariants(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) // Monday 09:00

	tests := []struct {
		name   string
		report ReportSchedule
		want   time.Time
	}{
		{
			name:   "daily",
			report: ReportSchedule{Name: "d", Cadence: CadenceDaily},
			want:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly",
			report: ReportSchedule{Name: "w", Cadence: CadenceWeekly},
			want:   time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly",
			report: ReportSchedule{Name: "m", Cadence: CadenceMonthly},
			want:   time.Date(2026, 4, 9, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "interval",
			report: ReportSchedule{Name: "i", Cadence: CadenceInterval, Every: 6 * time.Hour},
			want:   time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "cron daily at noon",
			report: ReportSchedule{Name: "c", Cadence: CadenceCron, CronExpr: "0 12 * * *"},
			want:   time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.report.NextAfter(base)
			if err != nil {
				t.Fatalf("NextAfter error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("NextAfter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextAfterRejectsBadSchedules(t *testing.T) {
	t.Parallel()
	base := time.Now()

	bad := []ReportSchedule{
		{Name: "no-interval", Cadence: CadenceInterval},
		{Name: "bad-cron", Cadence: CadenceCron, CronExpr: "not a cron"},
		{Name: "unknown", Cadence: Cadence("hourly-ish")},
	}
	for _, report := range bad {
		if _, err := report.NextAfter(base); err == nil {
			t.Errorf("NextAfter(%s) expected error, got none", report.Name)
		}
	}
}

func TestNextAfterIsAnchoredNotDrifting(t *testing.T) {
	t.Parallel()
	// A run executed an hour late must still advance from the scheduled
	// time, keeping the report aligned to its nominal slot.
	scheduled := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	report := ReportSchedule{Name: "d", Cadence: CadenceDaily, NextDueAt: scheduled}

	next, err := report.NextAfter(report.NextDueAt)
	if err != nil {
		t.Fatalf("NextAfter error: %v", err)
	}
	if want := scheduled.AddDate(0, 0, 1); !next.Equal(want) {
		t.Fatalf("NextAfter = %v, want %v", next, want)
	}
}

func TestDueRespectsEnabledFlag(t *testing.T) {
	t.Parallel()
	now := time.Now()
	past := now.Add(-time.Hour)

	enabled := ReportSchedule{Enabled: true, NextDueAt: past}
	disabled := ReportSchedule{Enabled: false, NextDueAt: past}
	future := ReportSchedule{Enabled: true, NextDueAt: now.Add(time.Hour)}

	if !enabled.Due(now) {
		t.Error("enabled past-due report should be due")
	}
	if disabled.Due(now) {
		t.Error("disabled report must never be due, regardless of NextDueAt")
	}
	if future.Due(now) {
		t.Error("future report should not be due")
	}
}

func TestWindowEndsAtDueTime(t *testing.T) {
	t.Parallel()
	due := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	report := ReportSchedule{Cadence: CadenceWeekly}
	start, end := report.Window(due)
	if !end.Equal(due) {
		t.Fatalf("window end = %v, want %v", end, due)
	}
	if want := due.AddDate(0, 0, -7); !start.Equal(want) {
		t.Fatalf("window start = %v, want %v", start, want)
	}
}
