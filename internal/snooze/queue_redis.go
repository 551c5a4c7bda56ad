package snooze

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisQueueKey = "snooze:queue"

// popDueScript atomically removes and returns due members so two workers
// never deliver the same snooze twice.
var popDueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, member in ipairs(due) do
	redis.call('ZREM', KEYS[1], member)
end
return due
`)

// RedisQueue is a sorted-set delayed queue: member = job key, score = fire
// time. ZADD of an existing member overwrites its score, which is exactly
// the replace semantics one outstanding snooze per reminder requires.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue constructs a Redis-backed delayed queue.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Schedule(ctx context.Context, key string, at time.Time) error {
	err := q.client.ZAdd(ctx, redisQueueKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: key,
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd snooze job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Cancel(ctx context.Context, key string) error {
	if err := q.client.ZRem(ctx, redisQueueKey, key).Err(); err != nil {
		return fmt.Errorf("zrem snooze job: %w", err)
	}
	return nil
}

func (q *RedisQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	res, err := popDueScript.Run(ctx, q.client,
		[]string{redisQueueKey},
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.Itoa(limit),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("pop due snooze jobs: %w", err)
	}
	return res, nil
}
