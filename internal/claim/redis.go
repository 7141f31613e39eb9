package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/jameshorton2486/kollect-it-sub006/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCoordinator backs the lease with SET NX via redislock, the right
// backend when several engine instances share one catalog. Redis owns
// expiry, so a crashed instance's leases lapse without any sweeper.
type RedisCoordinator struct {
	locker *redislock.Client

	mu    sync.Mutex
	locks map[string]*redislock.Lock
}

func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{
		locker: redislock.New(client),
		locks:  make(map[string]*redislock.Lock),
	}
}

func (c *RedisCoordinator) TryClaim(ctx context.Context, reportID uint, lease time.Duration) (string, error) {
	lock, err := c.locker.Obtain(ctx, claimKey(reportID), lease, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return "", ErrAlreadyClaimed
	}
	if err != nil {
		// Fail safe: cannot prove the report is unclaimed, skip this tick.
		config.GetLogger().WithField("report_id", reportID).
			Warnf("redis claim error, skipping: %v", err)
		return "", ErrAlreadyClaimed
	}

	token := lock.Token()
	c.mu.Lock()
	c.locks[token] = lock
	c.mu.Unlock()
	return token, nil
}

func (c *RedisCoordinator) Release(ctx context.Context, reportID uint, token string) error {
	c.mu.Lock()
	lock, ok := c.locks[token]
	delete(c.locks, token)
	c.mu.Unlock()
	if !ok {
		// Foreign or already-released token: idempotent no-op.
		return nil
	}
	if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return err
	}
	return nil
}

func claimKey(reportID uint) string {
	return fmt.Sprintf("reportclaim:%d", reportID)
}
