package claim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestConcurrentTryClaimExactlyOneWins(t *testing.T) {
	t.Parallel()
	coord := NewMemoryCoordinator()
	ctx := context.Background()

	const claimants = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := coord.TryClaim(ctx, 7, time.Minute); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrAlreadyClaimed) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
}

func TestClaimExpiresAndBecomesReclaimable(t *testing.T) {
	t.Parallel()
	coord := NewMemoryCoordinator()
	ctx := context.Background()

	now := time.Now()
	coord.SetClock(func() time.Time { return now })

	if _, err := coord.TryClaim(ctx, 1, time.Minute); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := coord.TryClaim(ctx, 1, time.Minute); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim should contend, got %v", err)
	}

	// Crash simulation: the holder never releases; the lease lapses.
	now = now.Add(61 * time.Second)
	if _, err := coord.TryClaim(ctx, 1, time.Minute); err != nil {
		t.Fatalf("claim after expiry should succeed, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	coord := NewMemoryCoordinator()
	ctx := context.Background()

	token, err := coord.TryClaim(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := coord.Release(ctx, 2, token); err != nil {
			t.Fatalf("release %d returned error: %v", i, err)
		}
	}

	if _, err := coord.TryClaim(ctx, 2, time.Minute); err != nil {
		t.Fatalf("claim after release should succeed, got %v", err)
	}
}

func TestReleaseIgnoresForeignToken(t *testing.T) {
	t.Parallel()
	coord := NewMemoryCoordinator()
	ctx := context.Background()

	if _, err := coord.TryClaim(ctx, 3, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// A stale run releasing with an old token must not drop the live lease.
	if err := coord.Release(ctx, 3, "stale-token"); err != nil {
		t.Fatalf("foreign release returned error: %v", err)
	}
	if _, err := coord.TryClaim(ctx, 3, time.Minute); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("lease should still be held, got %v", err)
	}
}

func TestIndependentReportsClaimIndependently(t *testing.T) {
	t.Parallel()
	coord := NewMemoryCoordinator()
	ctx := context.Background()

	if _, err := coord.TryClaim(ctx, 10, time.Minute); err != nil {
		t.Fatalf("claim 10 failed: %v", err)
	}
	if _, err := coord.TryClaim(ctx, 11, time.Minute); err != nil {
		t.Fatalf("claim 11 should not contend with 10, got %v", err)
	}
}
