package docstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// RedisStore keeps the document under lotledger:dataset:<id> and its
// revision counter under the same key with a :rev suffix.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wires the store to a Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DocumentKey is the Redis key holding dataset id.
func DocumentKey(id string) string {
	return "lotledger:dataset:" + id
}

func revisionKey(id string) string {
	return DocumentKey(id) + ":rev"
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*dataset.Document, int64, error) {
	var docCmd *redis.StringCmd
	var revCmd *redis.StringCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		docCmd = pipe.Get(ctx, DocumentKey(id))
		revCmd = pipe.Get(ctx, revisionKey(id))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, wrap("load", id, err)
	}

	raw, err := docCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, wrap("load", id, err)
	}
	rev, err := revCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, wrap("load", id, err)
	}
	doc, err := decode(id, raw)
	if err != nil {
		return nil, 0, err
	}
	return doc, rev, nil
}

// Save writes the document and bumps the revision in one MULTI block.
func (s *RedisStore) Save(ctx context.Context, id string, doc *dataset.Document) (int64, error) {
	raw, err := encode(id, doc)
	if err != nil {
		return 0, err
	}
	var revCmd *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, DocumentKey(id), raw, 0)
		revCmd = pipe.Incr(ctx, revisionKey(id))
		return nil
	})
	if err != nil {
		return 0, wrap("save", id, err)
	}
	return revCmd.Val(), nil
}
