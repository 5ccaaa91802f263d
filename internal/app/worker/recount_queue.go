package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// errQueueIdle means Pop waited its full poll interval without an item.
var errQueueIdle = errors.New("recount queue idle")

// RecountQueue carries ids of categories whose paper_count needs recomputing.
type RecountQueue interface {
	Push(ctx context.Context, categoryIDs ...string) error
	Pop(ctx context.Context) (string, error)
}

type redisRecountQueue struct {
	rdb  *redis.Client
	name string
	poll time.Duration
}

func NewRedisRecountQueue(rdb *redis.Client, name string) RecountQueue {
	return &redisRecountQueue{rdb: rdb, name: name, poll: 5 * time.Second}
}

func (q *redisRecountQueue) Push(ctx context.Context, categoryIDs ...string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	values := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		values[i] = id
	}
	return q.rdb.LPush(ctx, q.name, values...).Err()
}

// Pop blocks for at most the poll interval so shutdown is noticed promptly.
func (q *redisRecountQueue) Pop(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, q.poll, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errQueueIdle
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", errQueueIdle
	}
	return res[1], nil
}

type memoryRecountQueue struct {
	ch chan string
}

// NewMemoryRecountQueue is the in-process queue used when Redis is disabled.
// Push drops ids once size is reached; the next write to that category queues it again.
func NewMemoryRecountQueue(size int) RecountQueue {
	return &memoryRecountQueue{ch: make(chan string, size)}
}

func (q *memoryRecountQueue) Push(_ context.Context, categoryIDs ...string) error {
	for _, id := range categoryIDs {
		select {
		case q.ch <- id:
		default:
			return errors.New("recount queue full")
		}
	}
	return nil
}

func (q *memoryRecountQueue) Pop(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-q.ch:
		return id, nil
	}
}
