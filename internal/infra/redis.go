package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens the client backing the job queues and validates it with a
// ping — a broken queue connection should fail the boot, not the first job.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	// Workers block on BRPOP; keep a few idle conns warm for the dispatcher.
	opts.MinIdleConns = 2

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
