package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter allows at most max attempts per user and paper. Every
// allowed call consumes one attempt. Counters expire after window; a zero
// window keeps them forever.
type AttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, max: int64(max), window: window}
}

func (l *AttemptLimiter) MayAttempt(ctx context.Context, userID, paperID string) (bool, error) {
	key := "exam:attempts:" + userID + ":" + paperID
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 && l.window > 0 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.max, nil
}
