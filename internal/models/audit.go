package models

import (
	"time"

	"gorm.io/gorm"
)

type AuditStatus string

const (
	AuditStatusSuccess        AuditStatus = "success"
	AuditStatusPartialFailure AuditStatus = "partial_failure"
	AuditStatusFailure        AuditStatus = "failure"
)

// ReportAuditLogEntry records one execution attempt. Rows are append-only:
// the engine never updates or deletes them.
type ReportAuditLogEntry struct {
	gorm.Model
	ReportID       uint        `json:"report_id" gorm:"index;not null"`
	SentAt         time.Time   `json:"sent_at" gorm:"index;not null"`
	Status         AuditStatus `json:"status" gorm:"not null"`
	RecipientCount int         `json:"recipient_count"`
	ErrorDetail    string      `json:"error_detail,omitempty"`
}
