package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  uint
	reports map[uint]models.ReportSchedule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[uint]models.ReportSchedule)}
}

// Put inserts or replaces a schedule, assigning an ID when missing.
func (s *MemoryStore) Put(report models.ReportSchedule) models.ReportSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == 0 {
		s.nextID++
		report.ID = s.nextID
	} else if report.ID > s.nextID {
		s.nextID = report.ID
	}
	s.reports[report.ID] = report
	return report
}

func (s *MemoryStore) Get(ctx context.Context, id uint) (*models.ReportSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &report, nil
}

func (s *MemoryStore) ListEnabled(ctx context.Context) ([]models.ReportSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReportSchedule
	for _, r := range s.reports {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sortSchedules(out)
	return out, nil
}

func (s *MemoryStore) ListDue(ctx context.Context, now time.Time) ([]models.ReportSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReportSchedule
	for _, r := range s.reports {
		if r.Due(now) {
			out = append(out, r)
		}
	}
	sortSchedules(out)
	return out, nil
}

func (s *MemoryStore) Advance(ctx context.Context, id uint, nextDue time.Time, lastRun *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	if nextDue.Before(report.NextDueAt) {
		return ErrDueTimeRegression
	}
	report.NextDueAt = nextDue
	if lastRun != nil {
		lr := *lastRun
		report.LastRunAt = &lr
	}
	s.reports[id] = report
	return nil
}

func (s *MemoryStore) SetEnabled(ctx context.Context, id uint, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	report.Enabled = enabled
	s.reports[id] = report
	return nil
}

func sortSchedules(reports []models.ReportSchedule) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].NextDueAt.Equal(reports[j].NextDueAt) {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].NextDueAt.Before(reports[j].NextDueAt)
	})
}
