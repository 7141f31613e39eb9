package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/claim"
	"github.com/jameshorton2486/kollect-it-sub006/internal/config"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Driver owns the "run due reports once" entry point shared by the local
// tick loop and the external trigger endpoint. It is safe to call RunOnce
// repeatedly and concurrently: the claim coordinator is the sole
// serialization point, so overlapping passes skip each other's reports
// instead of double-sending.
type Driver struct {
	evaluator *Evaluator
	claims    claim.Coordinator
	executor  *Executor

	lease    time.Duration
	interval time.Duration
	sem      *semaphore.Weighted
	log      *logrus.Logger

	mu       sync.Mutex
	stopChan chan struct{}
}

func NewDriver(evaluator *Evaluator, claims claim.Coordinator, executor *Executor, lease, interval time.Duration, maxConcurrent int64) *Driver {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Driver{
		evaluator: evaluator,
		claims:    claims,
		executor:  executor,
		lease:     lease,
		interval:  interval,
		sem:       semaphore.NewWeighted(maxConcurrent),
		log:       config.GetLogger(),
	}
}

// RunOnce evaluates due reports as of now and executes every one it can
// claim. Claims are taken in the evaluator's deterministic order; executions
// of different reports may overlap, bounded by the semaphore. One report's
// failure never aborts the batch. Cancellation abandons only unstarted
// reports; a claimed report always runs to completion.
func (d *Driver) RunOnce(ctx context.Context, now time.Time) (BatchResult, error) {
	due, err := d.evaluator.FindDue(ctx, now)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		result BatchResult
		mu     sync.Mutex
		wg     sync.WaitGroup
	)

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		report := due[i]

		token, err := d.claims.TryClaim(ctx, report.ID, d.lease)
		if err != nil {
			if !errors.Is(err, claim.ErrAlreadyClaimed) {
				d.log.WithField("report_id", report.ID).Warnf("claim error: %v", err)
			}
			result.Skipped++
			continue
		}
		result.Attempted++

		if err := d.sem.Acquire(ctx, 1); err != nil {
			// Cancelled mid-batch: give the untouched claim back.
			if relErr := d.claims.Release(ctx, report.ID, token); relErr != nil {
				d.log.WithField("report_id", report.ID).Warnf("release failed: %v", relErr)
			}
			result.Attempted--
			break
		}

		wg.Add(1)
		go func(report models.ReportSchedule, token string) {
			defer wg.Done()
			defer d.sem.Release(1)
			defer func() {
				if err := d.claims.Release(context.Background(), report.ID, token); err != nil {
					d.log.WithField("report_id", report.ID).Warnf("release failed: %v", err)
				}
			}()

			// A claimed report runs to completion even when the triggering
			// request goes away; its context is detached from the caller and
			// bounded by the lease instead.
			execCtx, cancel := context.WithTimeout(context.Background(), d.lease)
			defer cancel()
			outcome := d.executor.Execute(execCtx, &report, token)

			mu.Lock()
			if outcome.Status == models.AuditStatusSuccess {
				result.Succeeded++
			} else {
				result.Failed++
			}
			mu.Unlock()
		}(report, token)
	}

	wg.Wait()

	if result.Attempted > 0 || result.Skipped > 0 {
		d.log.WithFields(logrus.Fields{
			"attempted": result.Attempted,
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
			"skipped":   result.Skipped,
		}).Info("scheduler pass complete")
	}
	return result, nil
}

// Start launches the local fixed-interval tick loop. The interval bounds
// only the granularity of due-checking, not any report's cadence. An initial
// pass runs immediately, matching startup behavior of the hosted cron.
func (d *Driver) Start() error {
	d.mu.Lock()
	if d.stopChan != nil {
		d.mu.Unlock()
		return errors.New("scheduler driver already started")
	}
	stopChan := make(chan struct{})
	d.stopChan = stopChan
	d.mu.Unlock()

	if _, err := d.RunOnce(context.Background(), time.Now()); err != nil {
		d.log.Warnf("initial scheduler pass failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := d.RunOnce(context.Background(), time.Now()); err != nil {
					d.log.Warnf("scheduler pass failed: %v", err)
				}
			case <-stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop halts the tick loop. In-flight executions finish on their own.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopChan != nil {
		close(d.stopChan)
		d.stopChan = nil
	}
}

// Running reports whether the tick loop is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopChan != nil
}

// RunReport claims and executes a single report immediately, outside the
// due-time check. Used by the operator "run now" endpoint.
func (d *Driver) RunReport(ctx context.Context, report *models.ReportSchedule) (Outcome, error) {
	token, err := d.claims.TryClaim(ctx, report.ID, d.lease)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := d.claims.Release(context.Background(), report.ID, token); err != nil {
			d.log.WithField("report_id", report.ID).Warnf("release failed: %v", err)
		}
	}()

	execCtx, cancel := context.WithTimeout(context.Background(), d.lease)
	defer cancel()
	return d.executor.Execute(execCtx, report, token), nil
}
