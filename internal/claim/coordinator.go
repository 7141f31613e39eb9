// Package claim serializes report executions. A claim is a lease, not a
// lock: it expires after its duration so a crashed run cannot block a report
// forever. The engine therefore provides at-least-once execution per due
// window, and downstream delivery must tolerate the rare duplicate send that
// a lease expiry can produce.
package claim

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyClaimed means another run currently holds the lease. Callers
// treat it as a normal skip, never as a failure. Coordinator backends also
// return it when the claim store cannot be reached in time: skipping is safe,
// double execution is not.
var ErrAlreadyClaimed = errors.New("report already claimed")

type Coordinator interface {
	// TryClaim atomically creates a lease for the report when none is
	// active, returning an opaque token identifying this run. The check and
	// create are a single compare-and-swap against the backing store.
	TryClaim(ctx context.Context, reportID uint, lease time.Duration) (string, error)

	// Release drops the lease identified by token. Releasing an expired,
	// already-released, or foreign-token claim is a no-op.
	Release(ctx context.Context, reportID uint, token string) error
}
