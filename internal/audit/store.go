// Package audit owns the append-only log of report send attempts. Entries
// are written exactly once per execution attempt and never updated or
// deleted; audit completeness is a correctness property, not telemetry.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// MaxPageSize bounds audit queries; requests for more are clamped.
const MaxPageSize = 50

// ErrUnavailable wraps any backing-store failure.
var ErrUnavailable = errors.New("audit store unavailable")

type Store interface {
	// Append writes one immutable entry.
	Append(ctx context.Context, entry *models.ReportAuditLogEntry) error

	// Recent returns up to limit entries for a report, newest first.
	Recent(ctx context.Context, reportID uint, limit int) ([]models.ReportAuditLogEntry, error)

	// CountSince tallies entries per status since the given time. Used by
	// the scheduler health endpoint.
	CountSince(ctx context.Context, since time.Time) (map[models.AuditStatus]int64, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
