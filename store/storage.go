package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"voicerag/types"
)

// VectorStorer is the external vector index the pipelines read and write.
type VectorStorer interface {
	// Upsert overwrites the record stored under id.
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error
	// Query returns up to topK records ordered by descending similarity.
	Query(ctx context.Context, vector []float32, topK int) ([]types.RetrievalMatch, error)
}

type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	dim   int
}

func NewPostgresStore(ctx context.Context, connStr, table string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		dim:   dim,
	}, nil
}

func (p *PostgresStore) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	if len(vector) != p.dim {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d", types.ErrStoreWrite, len(vector), p.dim)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`, p.table)

	if _, err := p.pool.Exec(ctx, query, id, metadata, pgvector.NewVector(vector), time.Now()); err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrStoreWrite, id, err)
	}
	return nil
}

func (p *PostgresStore) Query(ctx context.Context, vector []float32, topK int) ([]types.RetrievalMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", types.ErrStoreQuery)
	}

	query := fmt.Sprintf(`
		SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1, id
		LIMIT $2`, p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStoreQuery, err)
	}
	defer rows.Close()

	var matches []types.RetrievalMatch
	for rows.Next() {
		var m types.RetrievalMatch
		if err := rows.Scan(&m.ID, &m.Metadata, &m.Score); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrStoreQuery, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStoreQuery, err)
	}
	return matches, nil
}

// Init creates the pgvector extension, the records table and its cosine index.
func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		metadata JSONB NOT NULL DEFAULT '{}',
		embedding vector(%[2]d),
		updated_at TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s USING hnsw (embedding vector_cosine_ops);
	`, p.table, p.dim, pgx.Identifier{"idx_" + unquote(p.table) + "_embedding"}.Sanitize())

	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return ident[1 : len(ident)-1]
	}
	return ident
}
