package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Options selects the Redis endpoint.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New creates a Redis client and verifies it answers within five seconds.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}

	return client, nil
}

// NewLocker returns a distributed lock client sharing the Redis connection.
func NewLocker(client *redis.Client) *redislock.Client {
	if client == nil {
		return nil
	}
	return redislock.New(client)
}
