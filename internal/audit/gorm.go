package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Append(ctx context.Context, entry *models.ReportAuditLogEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *gormStore) Recent(ctx context.Context, reportID uint, limit int) ([]models.ReportAuditLogEntry, error) {
	var entries []models.ReportAuditLogEntry
	if err := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("sent_at desc").
		Limit(clampLimit(limit)).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (s *gormStore) CountSince(ctx context.Context, since time.Time) (map[models.AuditStatus]int64, error) {
	type row struct {
		Status models.AuditStatus
		N      int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.ReportAuditLogEntry{}).
		Select("status, count(*) as n").
		Where("sent_at >= ?", since).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	counts := make(map[models.AuditStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
