package claim

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jameshorton2486/kollect-it-sub006/internal/config"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCoordinator backs the lease with a claim table in the shared database.
// The insert-or-steal-expired is a single upsert with a conditional update,
// so two concurrent claimants can never both win: the database applies the
// conflict clause atomically per row.
type GormCoordinator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormCoordinator(db *gorm.DB) *GormCoordinator {
	return &GormCoordinator{db: db, now: time.Now}
}

func (c *GormCoordinator) TryClaim(ctx context.Context, reportID uint, lease time.Duration) (string, error) {
	now := c.now()
	token := uuid.NewString()
	record := models.ReportClaim{
		ReportID:  reportID,
		Token:     token,
		ClaimedAt: now,
		ExpiresAt: now.Add(lease),
	}

	res := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"token":      token,
			"claimed_at": now,
			"expires_at": now.Add(lease),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lte{Column: clause.Column{Table: "report_claims", Name: "expires_at"}, Value: now},
		}},
	}).Create(&record)

	if res.Error != nil {
		// Fail safe: an unreachable claim store means we cannot prove the
		// report is unclaimed, so skip it this tick.
		config.GetLogger().WithField("report_id", reportID).
			Warnf("claim store error, skipping: %v", res.Error)
		return "", ErrAlreadyClaimed
	}
	if res.RowsAffected == 0 {
		return "", ErrAlreadyClaimed
	}
	return token, nil
}

func (c *GormCoordinator) Release(ctx context.Context, reportID uint, token string) error {
	// Token-checked so a run whose lease was stolen cannot release the
	// successor's claim. Zero rows affected is the idempotent no-op case.
	return c.db.WithContext(ctx).
		Where("report_id = ? AND token = ?", reportID, token).
		Delete(&models.ReportClaim{}).Error
}
