package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/audit"
	"github.com/jameshorton2486/kollect-it-sub006/internal/catalog"
	"github.com/jameshorton2486/kollect-it-sub006/internal/config"
	"github.com/jameshorton2486/kollect-it-sub006/internal/delivery"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
	"github.com/sirupsen/logrus"
)

const auditRetryDelay = 250 * time.Millisecond

// Executor runs one claimed report end to end: render, deliver, audit,
// advance. It is the only component that writes audit entries or moves
// NextDueAt.
type Executor struct {
	renderer render.Renderer
	gateways map[models.DeliveryChannel]delivery.Gateway
	audit    audit.Store
	catalog  catalog.Store
	log      *logrus.Logger
	now      func() time.Time
}

func NewExecutor(renderer render.Renderer, gateways map[models.DeliveryChannel]delivery.Gateway, auditStore audit.Store, catalogStore catalog.Store) *Executor {
	return &Executor{
		renderer: renderer,
		gateways: gateways,
		audit:    auditStore,
		catalog:  catalogStore,
		log:      config.GetLogger(),
		now:      time.Now,
	}
}

// Execute renders and delivers one claimed report, appends exactly one audit
// entry, and advances the schedule by one cadence period computed from the
// scheduled time. Failure still advances: transient errors wait for the next
// natural cadence tick instead of retrying in a tight loop, and an operator
// who needs faster retry re-triggers explicitly.
func (x *Executor) Execute(ctx context.Context, report *models.ReportSchedule, claimToken string) Outcome {
	startedAt := x.now()
	outcome := x.attempt(ctx, report)

	x.appendAudit(ctx, report, outcome)
	x.advance(ctx, report, startedAt, outcome)

	x.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"report":    report.Name,
		"status":    outcome.Status,
		"token":     claimToken,
	}).Info("report execution finished")

	return outcome
}

func (x *Executor) attempt(ctx context.Context, report *models.ReportSchedule) Outcome {
	windowStart, windowEnd := report.Window(report.NextDueAt)

	content, err := x.renderer.Render(ctx, report, windowStart, windowEnd)
	if err != nil {
		return Outcome{Status: models.AuditStatusFailure,
			ErrorDetail: fmt.Sprintf("render: %v", err)}
	}

	gateway, ok := x.gateways[report.Channel]
	if !ok {
		return Outcome{Status: models.AuditStatusFailure,
			ErrorDetail: fmt.Sprintf("no gateway for channel %q", report.Channel)}
	}

	results, err := gateway.Deliver(ctx, content, report.Recipients)
	if err != nil {
		return Outcome{Status: models.AuditStatusFailure, Recipients: results,
			ErrorDetail: fmt.Sprintf("delivery: %v", err)}
	}

	delivered := 0
	detail := ""
	for _, res := range results {
		if res.OK {
			delivered++
		} else if detail == "" {
			detail = fmt.Sprintf("%s: %s", res.Recipient, res.Error)
		}
	}

	switch {
	case delivered == len(results) && delivered > 0:
		return Outcome{Status: models.AuditStatusSuccess, Recipients: results}
	case delivered > 0:
		return Outcome{Status: models.AuditStatusPartialFailure, Recipients: results, ErrorDetail: detail}
	default:
		if detail == "" {
			detail = "no recipients accepted delivery"
		}
		return Outcome{Status: models.AuditStatusFailure, Recipients: results, ErrorDetail: detail}
	}
}

// appendAudit writes the single audit entry for this attempt. Losing the
// record of a send that did happen is worse than an ordinary skip, so a
// store failure here is retried once and then escalated to error level.
func (x *Executor) appendAudit(ctx context.Context, report *models.ReportSchedule, outcome Outcome) {
	entry := &models.ReportAuditLogEntry{
		ReportID:       report.ID,
		SentAt:         x.now(),
		Status:         outcome.Status,
		RecipientCount: len(report.Recipients),
		ErrorDetail:    outcome.ErrorDetail,
	}

	err := x.audit.Append(ctx, entry)
	if err != nil {
		select {
		case <-ctx.Done():
		case <-time.After(auditRetryDelay):
			err = x.audit.Append(ctx, entry)
		}
	}
	if err != nil {
		x.log.WithFields(logrus.Fields{
			"report_id": report.ID,
			"status":    outcome.Status,
		}).Errorf("audit entry lost after delivery attempt: %v", err)
	}
}

// advance moves NextDueAt forward by one cadence period from the previous
// scheduled time, never from the wall clock, so a late run does not drift
// the schedule. LastRunAt is only set when delivery at least partly worked.
func (x *Executor) advance(ctx context.Context, report *models.ReportSchedule, startedAt time.Time, outcome Outcome) {
	nextDue, err := report.NextAfter(report.NextDueAt)
	if err != nil {
		x.log.WithField("report_id", report.ID).Errorf("cannot compute next due time: %v", err)
		return
	}

	var lastRun *time.Time
	if outcome.Status != models.AuditStatusFailure {
		lastRun = &startedAt
	}
	if err := x.catalog.Advance(ctx, report.ID, nextDue, lastRun); err != nil {
		x.log.WithField("report_id", report.ID).Errorf("failed to advance schedule: %v", err)
		return
	}
	report.NextDueAt = nextDue
}
