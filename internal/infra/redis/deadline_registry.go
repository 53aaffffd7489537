package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const deadlinesKey = "exam:deadlines"

// DeadlineRegistry keeps attempt deadlines in a sorted set scored by unix
// seconds, so due submissions are a single range query shared by every instance.
type DeadlineRegistry struct {
	client *redis.Client
}

func NewDeadlineRegistry(client *redis.Client) *DeadlineRegistry {
	return &DeadlineRegistry{client: client}
}

func (r *DeadlineRegistry) Register(ctx context.Context, submissionID string, deadline time.Time) error {
	return r.client.ZAdd(ctx, deadlinesKey, redis.Z{
		Score:  float64(deadline.Unix()),
		Member: submissionID,
	}).Err()
}

func (r *DeadlineRegistry) Due(ctx context.Context, now time.Time, limit int) ([]string, error) {
	opt := &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}
	if limit > 0 {
		opt.Count = int64(limit)
	}
	return r.client.ZRangeByScore(ctx, deadlinesKey, opt).Result()
}

func (r *DeadlineRegistry) Remove(ctx context.Context, submissionIDs ...string) error {
	if len(submissionIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(submissionIDs))
	for i, id := range submissionIDs {
		members[i] = id
	}
	return r.client.ZRem(ctx, deadlinesKey, members...).Err()
}
