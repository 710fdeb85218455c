package docstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/platform/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    revision   BIGINT NOT NULL DEFAULT 1,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS dataset_revisions (
    dataset_id TEXT NOT NULL REFERENCES datasets (id) ON DELETE CASCADE,
    revision   BIGINT NOT NULL,
    doc        JSONB NOT NULL,
    saved_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (dataset_id, revision)
);`

const upsertSQL = `
INSERT INTO datasets (id, doc, revision, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (id) DO UPDATE
SET doc = EXCLUDED.doc, revision = datasets.revision + 1, updated_at = now()
RETURNING revision`

// PostgresStore keeps documents in a JSONB table and records every saved
// revision in dataset_revisions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires the store to a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return wrap("schema", "", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, id string) (*dataset.Document, int64, error) {
	var (
		raw []byte
		rev int64
	)
	err := s.pool.QueryRow(ctx, `SELECT doc, revision FROM datasets WHERE id = $1`, id).Scan(&raw, &rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, wrap("load", id, err)
	}
	doc, err := decode(id, raw)
	if err != nil {
		return nil, 0, err
	}
	return doc, rev, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, id string, doc *dataset.Document) (int64, error) {
	raw, err := encode(id, doc)
	if err != nil {
		return 0, err
	}
	var rev int64
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, upsertSQL, id, raw).Scan(&rev); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO dataset_revisions (dataset_id, revision, doc) VALUES ($1, $2, $3)`,
			id, rev, raw)
		return err
	})
	if err != nil {
		return 0, wrap("save", id, err)
	}
	return rev, nil
}

// Revisions lists the stored revision numbers of id, newest first.
func (s *PostgresStore) Revisions(ctx context.Context, id string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT revision FROM dataset_revisions WHERE dataset_id = $1 ORDER BY revision DESC LIMIT $2`,
		id, limit)
	if err != nil {
		return nil, wrap("revisions", id, err)
	}
	revs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrap("revisions", id, err)
	}
	return revs, nil
}
