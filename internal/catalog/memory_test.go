package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

func TestListDueOrderingIsDeterministic(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	now := time.Now()

	// Inserted out of order on purpose.
	store.Put(models.ReportSchedule{Name: "c", Enabled: true, NextDueAt: now.Add(-time.Minute)})
	store.Put(models.ReportSchedule{Name: "a", Enabled: true, NextDueAt: now.Add(-time.Hour)})
	store.Put(models.ReportSchedule{Name: "b", Enabled: true, NextDueAt: now.Add(-time.Hour)})
	store.Put(models.ReportSchedule{Name: "later", Enabled: true, NextDueAt: now.Add(time.Hour)})
	store.Put(models.ReportSchedule{Name: "off", Enabled: false, NextDueAt: now.Add(-time.Hour)})

	due, err := store.ListDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ListDue error: %v", err)
	}

	var names []string
	for _, r := range due {
		names = append(names, r.Name)
	}
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("due = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("due = %v, want %v", names, want)
		}
	}
}

func TestAdvanceRefusesRegression(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	due := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	report := store.Put(models.ReportSchedule{Name: "r", Enabled: true, NextDueAt: due})

	lastRun := due.Add(time.Minute)
	if err := store.Advance(context.Background(), report.ID, due.AddDate(0, 0, 1), &lastRun); err != nil {
		t.Fatalf("forward advance failed: %v", err)
	}
	err := store.Advance(context.Background(), report.ID, due, &lastRun)
	if !errors.Is(err, ErrDueTimeRegression) {
		t.Fatalf("backward advance error = %v, want ErrDueTimeRegression", err)
	}
}

func TestAdvanceWithNilLastRunKeepsStoredValue(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	due := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	report := store.Put(models.ReportSchedule{Name: "r", Enabled: true, NextDueAt: due})

	if err := store.Advance(context.Background(), report.ID, due.AddDate(0, 0, 1), nil); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	stored, _ := store.Get(context.Background(), report.ID)
	if stored.LastRunAt != nil {
		t.Fatal("nil lastRun must leave LastRunAt unset")
	}
}
