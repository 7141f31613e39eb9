package claim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// MemoryCoordinator implements the lease with an in-process mutex map. It is
// the right backend for a single-process deployment and for tests; it cannot
// coordinate across instances.
type MemoryCoordinator struct {
	mu     sync.Mutex
	leases map[uint]memoryLease
	now    func() time.Time
}

func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{
		leases: make(map[uint]memoryLease),
		now:    time.Now,
	}
}

func (c *MemoryCoordinator) TryClaim(ctx context.Context, reportID uint, lease time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if existing, ok := c.leases[reportID]; ok && existing.expiresAt.After(now) {
		return "", ErrAlreadyClaimed
	}

	token := uuid.NewString()
	c.leases[reportID] = memoryLease{token: token, expiresAt: now.Add(lease)}
	return token, nil
}

func (c *MemoryCoordinator) Release(ctx context.Context, reportID uint, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.leases[reportID]; ok && existing.token == token {
		delete(c.leases, reportID)
	}
	return nil
}

// SetClock overrides the coordinator's clock. Test helper.
func (c *MemoryCoordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
