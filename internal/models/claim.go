package models

import "time"

// ReportClaim is a transient lease marking "report X is currently executing".
// At most one unexpired row exists per report; an expired row may be taken
// over, so a crashed run never blocks a report permanently.
//
// Deliberately not a gorm.Model: claims are hard-deleted on release, and a
// soft-delete column would defeat the unique report_id index the
// compare-and-swap relies on.
type ReportClaim struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ReportID  uint      `json:"report_id" gorm:"uniqueIndex;not null"`
	Token     string    `json:"token" gorm:"not null"`
	ClaimedAt time.Time `json:"claimed_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}
