// Package lock provides a per-chapter+line advisory lock so two concurrent
// sender invocations cannot both claim a line's remaining daily capacity.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LineLocker takes short-lived advisory locks in redis via SET NX.
type LineLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewLineLocker creates a locker. The TTL bounds how long a crashed
// invocation can hold a line hostage.
func NewLineLocker(redisClient *redis.Client, ttl time.Duration) *LineLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &LineLocker{redis: redisClient, ttl: ttl}
}

func lockKey(chapterID string, lineNumber int) string {
	return fmt.Sprintf("outreach:line_lock:%s:%d", chapterID, lineNumber)
}

// Acquire attempts to take the lock for one line. It returns false if
// another invocation already holds it.
func (l *LineLocker) Acquire(ctx context.Context, chapterID string, lineNumber int) (bool, error) {
	ok, err := l.redis.SetNX(ctx, lockKey(chapterID, lineNumber), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire line lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call on a lock that already expired.
func (l *LineLocker) Release(ctx context.Context, chapterID string, lineNumber int) error {
	if err := l.redis.Del(ctx, lockKey(chapterID, lineNumber)).Err(); err != nil {
		return fmt.Errorf("release line lock: %w", err)
	}
	return nil
}

// AcquireAll locks every line in lineNumbers, releasing any it took if one
// is contended. Returns true only when the whole set was acquired.
func (l *LineLocker) AcquireAll(ctx context.Context, chapterID string, lineNumbers []int) (bool, error) {
	taken := make([]int, 0, len(lineNumbers))
	for _, n := range lineNumbers {
		ok, err := l.Acquire(ctx, chapterID, n)
		if err != nil || !ok {
			for _, t := range taken {
				_ = l.Release(ctx, chapterID, t)
			}
			return false, err
		}
		taken = append(taken, n)
	}
	return true, nil
}

// ReleaseAll drops the locks for every line in lineNumbers.
func (l *LineLocker) ReleaseAll(ctx context.Context, chapterID string, lineNumbers []int) {
	for _, n := range lineNumbers {
		_ = l.Release(ctx, chapterID, n)
	}
}
