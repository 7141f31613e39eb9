package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/claim"
	"github.com/jameshorton2486/kollect-it-sub006/internal/delivery"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
)

func newDriver(f *fixture) *Driver {
	return NewDriver(NewEvaluator(f.catalog), claim.NewMemoryCoordinator(), f.executor,
		5*time.Minute, time.Minute, 4)
}

func TestRunOnceWithNothingDue(t *testing.T) {
	f := newFixture()
	d := newDriver(f)
	dailyReport(f, "future", time.Now().Add(time.Hour))

	result, err := d.RunOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 0 || result.Succeeded != 0 || result.Failed != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(f.audit.All()) != 0 {
		t.Fatal("empty pass must perform no audit writes")
	}
}

func TestRunOnceExcludesDisabledReports(t *testing.T) {
	f := newFixture()
	d := newDriver(f)

	report := dailyReport(f, "switched-off", time.Now().Add(-time.Hour))
	if err := f.catalog.SetEnabled(context.Background(), report.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	result, err := d.RunOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 0 {
		t.Fatalf("disabled report was attempted: %+v", result)
	}
	if len(f.audit.All()) != 0 {
		t.Fatal("disabled report produced an audit entry")
	}
}

func TestRunOnceExecutesDueReport(t *testing.T) {
	f := newFixture()
	d := newDriver(f)

	scheduled := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	report := dailyReport(f, "daily", scheduled)

	result, err := d.RunOnce(context.Background(), scheduled.Add(time.Hour))
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 1 || result.Succeeded != 1 {
		t.Fatalf("batch result = %+v, want 1 attempted 1 succeeded", result)
	}

	entries := f.audit.All()
	if len(entries) != 1 || entries[0].Status != models.AuditStatusSuccess {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}

	stored, _ := f.catalog.Get(context.Background(), report.ID)
	if want := scheduled.AddDate(0, 0, 1); !stored.NextDueAt.Equal(want) {
		t.Fatalf("NextDueAt = %v, want %v (advance from scheduled time, not now)", stored.NextDueAt, want)
	}
}

func TestOverlappingRunOnceProducesOneAuditEntry(t *testing.T) {
	f := newFixture()
	f.gateway.delay = 50 * time.Millisecond // keep the first run's lease held
	d := newDriver(f)

	scheduled := time.Now().Add(-time.Hour)
	dailyReport(f, "contended", scheduled)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []BatchResult
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := d.RunOnce(context.Background(), time.Now())
			if err != nil {
				t.Errorf("RunOnce error: %v", err)
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if got := len(f.audit.All()); got != 1 {
		t.Fatalf("audit entries = %d, want exactly 1 for the due cycle", got)
	}
	if f.gateway.callCount() != 1 {
		t.Fatalf("delivery calls = %d, want 1 (no duplicate send)", f.gateway.callCount())
	}

	attempted, skipped := 0, 0
	for _, r := range results {
		attempted += r.Attempted
		skipped += r.Skipped
	}
	if attempted != 1 {
		t.Fatalf("total attempted = %d, want 1", attempted)
	}
	// The loser either contended on the claim or arrived after the winner
	// advanced the schedule; both are clean skips, not errors.
	if skipped > 1 {
		t.Fatalf("total skipped = %d, want at most 1", skipped)
	}
}

func TestFailingReportDoesNotBlockBatch(t *testing.T) {
	f := newFixture()
	f.gateway.reject = map[string]bool{"bad@example.com": true}
	d := newDriver(f)

	due := time.Now().Add(-time.Hour)
	dailyReport(f, "failing", due, "bad@example.com")
	dailyReport(f, "healthy", due.Add(time.Minute), "good@example.com")

	result, err := d.RunOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 2 {
		t.Fatalf("attempted = %d, want 2", result.Attempted)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("batch result = %+v, want 1 succeeded 1 failed", result)
	}
	if got := len(f.audit.All()); got != 2 {
		t.Fatalf("audit entries = %d, want 2", got)
	}
}

func TestRunOnceCancelledBeforeStartClaimsNothing(t *testing.T) {
	f := newFixture()
	d := newDriver(f)
	dailyReport(f, "due", time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.RunOnce(ctx, time.Now())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 0 {
		t.Fatalf("cancelled pass attempted %d reports", result.Attempted)
	}
	if len(f.audit.All()) != 0 {
		t.Fatal("cancelled pass wrote audit entries")
	}
}

// holdGateway parks deliveries until released so the test can cancel the
// caller mid-flight.
type holdGateway struct {
	started chan struct{}
	release chan struct{}
}

func (g *holdGateway) Deliver(ctx context.Context, content *render.Content, recipients []string) ([]delivery.RecipientResult, error) {
	close(g.started)
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]delivery.RecipientResult, len(recipients))
	for i, rcpt := range recipients {
		results[i] = delivery.RecipientResult{Recipient: rcpt, OK: true}
	}
	return results, nil
}

func TestCallerCancellationDoesNotAbortClaimedExecution(t *testing.T) {
	f := newFixture()
	gw := &holdGateway{started: make(chan struct{}), release: make(chan struct{})}
	gateways := map[models.DeliveryChannel]delivery.Gateway{models.ChannelEmail: gw}
	executor := NewExecutor(f.renderer, gateways, f.audit, f.catalog)
	d := NewDriver(NewEvaluator(f.catalog), claim.NewMemoryCoordinator(), executor,
		5*time.Minute, time.Minute, 4)

	scheduled := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	report := dailyReport(f, "held", scheduled)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan BatchResult, 1)
	go func() {
		result, err := d.RunOnce(ctx, scheduled.Add(time.Hour))
		if err != nil {
			t.Errorf("RunOnce error: %v", err)
		}
		done <- result
	}()

	// The triggering request disconnects while delivery is in flight. The
	// claimed report must still finish and count as a clean success.
	<-gw.started
	cancel()
	close(gw.release)
	result := <-done

	if result.Attempted != 1 || result.Succeeded != 1 {
		t.Fatalf("batch result = %+v, want 1 attempted 1 succeeded", result)
	}
	entries := f.audit.All()
	if len(entries) != 1 || entries[0].Status != models.AuditStatusSuccess {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
	stored, _ := f.catalog.Get(context.Background(), report.ID)
	if want := scheduled.AddDate(0, 0, 1); !stored.NextDueAt.Equal(want) {
		t.Fatalf("NextDueAt = %v, want %v (one period, not aborted)", stored.NextDueAt, want)
	}
}

// brokenCoordinator simulates an unreachable claim store whose adapter does
// not translate errors itself.
type brokenCoordinator struct{}

func (brokenCoordinator) TryClaim(ctx context.Context, reportID uint, lease time.Duration) (string, error) {
	return "", errors.New("claim store unreachable")
}

func (brokenCoordinator) Release(ctx context.Context, reportID uint, token string) error {
	return nil
}

func TestRunOnceSkipsWhenClaimStoreUnreachable(t *testing.T) {
	f := newFixture()
	d := NewDriver(NewEvaluator(f.catalog), brokenCoordinator{}, f.executor,
		5*time.Minute, time.Minute, 4)
	dailyReport(f, "due", time.Now().Add(-time.Hour))

	result, err := d.RunOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Attempted != 0 || result.Skipped != 1 {
		t.Fatalf("batch result = %+v, want 0 attempted 1 skipped", result)
	}
	if f.gateway.callCount() != 0 {
		t.Fatal("skipped report must not be delivered")
	}
	if len(f.audit.All()) != 0 {
		t.Fatal("skipped report must not be audited")
	}
}

func TestRunReportRespectsActiveClaim(t *testing.T) {
	f := newFixture()
	coord := claim.NewMemoryCoordinator()
	d := NewDriver(NewEvaluator(f.catalog), coord, f.executor, 5*time.Minute, time.Minute, 4)

	report := dailyReport(f, "manual", time.Now().Add(time.Hour))

	if _, err := coord.TryClaim(context.Background(), report.ID, time.Minute); err != nil {
		t.Fatalf("pre-claim failed: %v", err)
	}
	if _, err := d.RunReport(context.Background(), &report); err == nil {
		t.Fatal("RunReport should refuse while a claim is active")
	}
	if len(f.audit.All()) != 0 {
		t.Fatal("refused run must not write audit entries")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture()
	d := newDriver(f)

	if d.Running() {
		t.Fatal("driver should not be running before Start")
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !d.Running() {
		t.Fatal("driver should report running after Start")
	}
	if err := d.Start(); err == nil {
		t.Fatal("second Start should fail")
	}
	d.Stop()
	if d.Running() {
		t.Fatal("driver should not be running after Stop")
	}
	d.Stop() // idempotent
}
