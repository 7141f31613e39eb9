package scheduler

import (
	"context"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/catalog"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// Evaluator selects the reports whose due time has elapsed. It is a pure
// read over the catalog and never mutates schedule state.
type Evaluator struct {
	catalog catalog.Store
}

func NewEvaluator(store catalog.Store) *Evaluator {
	return &Evaluator{catalog: store}
}

// FindDue returns every enabled report with NextDueAt <= now, ordered by
// NextDueAt then ID. The order is deterministic so retries of a partially
// failed batch make consistent progress. An empty batch is not an error.
func (e *Evaluator) FindDue(ctx context.Context, now time.Time) ([]models.ReportSchedule, error) {
	return e.catalog.ListDue(ctx, now)
}
