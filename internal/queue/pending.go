package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pending is a stream entry delivered to the group but never acknowledged.
type Pending struct {
	ID         string
	Consumer   string
	Idle       time.Duration
	Deliveries int64
}

// Stale lists up to count pending entries idle for at least minIdle.
func (c *RedisConsumer) Stale(ctx context.Context, minIdle time.Duration, count int64) ([]Pending, error) {
	entries, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xpending (stream=%s): %w", c.cfg.Stream, err)
	}

	stale := make([]Pending, len(entries))
	for i, e := range entries {
		stale[i] = Pending{ID: e.ID, Consumer: e.Consumer, Idle: e.Idle, Deliveries: e.RetryCount}
	}
	return stale, nil
}

// Claim transfers the entry to claimer if it is still idle for minIdle.
// ok is false when another consumer claimed or acknowledged it first.
func (c *RedisConsumer) Claim(ctx context.Context, claimer string, minIdle time.Duration, id string) (redis.XMessage, bool, error) {
	messages, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: claimer,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
	if err != nil {
		return redis.XMessage{}, false, fmt.Errorf("xclaim (stream=%s): %w", c.cfg.Stream, err)
	}
	if len(messages) == 0 {
		return redis.XMessage{}, false, nil
	}
	return messages[0], true, nil
}
