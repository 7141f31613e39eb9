package scheduler

import (
	"github.com/jameshorton2486/kollect-it-sub006/internal/delivery"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// BatchResult summarizes one RunOnce pass. Skipped counts claim contention
// and adapter errors during evaluation of a single report; neither is a
// failure. Failed includes partial failures: something reached the audit log
// with an error detail.
type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Outcome is the result of executing one claimed report.
type Outcome struct {
	Status      models.AuditStatus
	Recipients  []delivery.RecipientResult
	ErrorDetail string
}
