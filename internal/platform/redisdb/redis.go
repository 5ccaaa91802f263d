package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis opens the client shared by the query cache, the row guard and the paper-count queue.
func ConnectRedis(addr, password string, db int) error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
	}
}
