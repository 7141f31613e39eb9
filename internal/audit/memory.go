package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  uint
	entries []models.ReportAuditLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry *models.ReportAuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, reportID uint, limit int) ([]models.ReportAuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReportAuditLogEntry
	for _, e := range s.entries {
		if e.ReportID == reportID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if max := clampLimit(limit); len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (s *MemoryStore) CountSince(ctx context.Context, since time.Time) (map[models.AuditStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.AuditStatus]int64)
	for _, e := range s.entries {
		if !e.SentAt.Before(since) {
			counts[e.Status]++
		}
	}
	return counts, nil
}

// All returns a copy of every entry, oldest first. Test helper.
func (s *MemoryStore) All() []models.ReportAuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ReportAuditLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
