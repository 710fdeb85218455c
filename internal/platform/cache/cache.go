package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey = "lotledger:cache:version"
	// BumpChannel carries the new version after every invalidation.
	BumpChannel = "lotledger.bump"
)

// Cache wraps Redis based caching with versioning controls. A nil Cache or
// one without a client calls the loader every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("platform/cache: init version: %w", err)
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("platform/cache: version: %w", err)
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, versionKey, ver, 0).Err(); err != nil {
			return 0, fmt.Errorf("platform/cache: reset version: %w", err)
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version appended.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// dest always receives the JSON round trip of the value so hits and misses
// decode identically.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("platform/cache: get %s: %w", key, err)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("platform/cache: encode %s: %w", key, err)
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("platform/cache: set %s: %w", key, err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every versioned key by incrementing the global version
// and publishing the new value.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return fmt.Errorf("platform/cache: bump: %w", err)
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bumps published by other
// processes sharing the Redis instance until ctx is done. onBump, when set,
// receives each version seen.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string, onBump func(int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("platform/cache: subscribe %s: %w", channel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					ver, _ = c.client.Incr(ctx, versionKey).Result()
				} else {
					// the version never moves backwards
					_ = c.client.Eval(ctx, raiseVersion, []string{versionKey}, ver).Err()
				}
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}

const raiseVersion = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if tonumber(ARGV[1]) > cur then
  redis.call('SET', KEYS[1], ARGV[1])
end
return cur`
