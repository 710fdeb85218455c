package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bsm/redislock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/lotledger/internal/docstore"
	"github.com/odyssey-erp/lotledger/internal/platform/cache"
	"github.com/odyssey-erp/lotledger/internal/platform/db"
)

// Deps holds the shared infrastructure built from Config.
type Deps struct {
	Store  docstore.Store
	Cache  *cache.Cache
	Locker *redislock.Client
	Redis  *redis.Client
	Pool   *pgxpool.Pool

	logger *slog.Logger
}

// Connect opens the configured store plus the Redis client backing the
// cache and the dataset lock. Redis is optional for the postgres and file
// backends: when it cannot be reached the cache degrades to direct
// computation and reconciliation runs without the distributed lock.
func Connect(ctx context.Context, cfg *Config, logger *slog.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	deps := &Deps{logger: logger}

	client, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		if cfg.StoreBackend == StoreRedis {
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		logger.Warn("redis unavailable, running without cache and lock", slog.Any("error", err))
	} else {
		deps.Redis = client
		deps.Locker = cache.NewLocker(client)
	}
	deps.Cache = cache.NewCache(deps.Redis, cfg.CacheTTL)

	switch cfg.StoreBackend {
	case StorePostgres:
		pool, err := db.Open(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		deps.Pool = pool
		store := docstore.NewPostgresStore(pool)
		if !InTestMode() {
			if err := store.EnsureSchema(ctx); err != nil {
				deps.Close()
				return nil, fmt.Errorf("app: ensure schema: %w", err)
			}
		}
		deps.Store = store
	case StoreRedis:
		deps.Store = docstore.NewRedisStore(deps.Redis)
	case StoreFile:
		deps.Store = docstore.NewSingleFileStore(cfg.DatasetFile)
	default:
		deps.Close()
		return nil, fmt.Errorf("app: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return deps, nil
}

// Close releases every open connection.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.logger.Warn("redis close", slog.Any("error", err))
		}
	}
}
