package catalog

import (
	"context"
	"errors"
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

func (s *gormStore) Get(ctx context.Context, id uint) (*models.ReportSchedule, error) {
	var report models.ReportSchedule
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &report, nil
}

func (s *gormStore) ListEnabled(ctx context.Context) ([]models.ReportSchedule, error) {
	var reports []models.ReportSchedule
	if err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("next_due_at, id").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return reports, nil
}

func (s *gormStore) ListDue(ctx context.Context, now time.Time) ([]models.ReportSchedule, error) {
	var reports []models.ReportSchedule
	if err := s.db.WithContext(ctx).
		Where("enabled = ? AND next_due_at <= ?", true, now).
		Order("next_due_at, id").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return reports, nil
}

func (s *gormStore) Advance(ctx context.Context, id uint, nextDue time.Time, lastRun *time.Time) error {
	updates := map[string]interface{}{"next_due_at": nextDue}
	if lastRun != nil {
		updates["last_run_at"] = *lastRun
	}
	res := s.db.WithContext(ctx).Model(&models.ReportSchedule{}).
		Where("id = ? AND next_due_at <= ?", id, nextDue).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.ReportSchedule{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrDueTimeRegression
	}
	return nil
}

func (s *gormStore) SetEnabled(ctx context.Context, id uint, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&models.ReportSchedule{}).
		Where("id = ?", id).
		Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
