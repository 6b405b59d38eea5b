package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// IndexEntry is the persisted unit inside a collection.
type IndexEntry struct {
	ID          string
	Content     string
	Metadata    map[string]string
	ContentHash string
	Embedding   []float32
}

// Neighbor is one raw k-NN hit: content, metadata and cosine distance.
type Neighbor struct {
	Content  string
	Metadata map[string]string
	Distance float64
}

type Repository interface {
	EnsureSchema(ctx context.Context) error
	UpsertEntries(ctx context.Context, collection string, entries []IndexEntry) error
	Search(ctx context.Context, collection string, embedding []float32, limit int) ([]Neighbor, error)
	ContentHashes(ctx context.Context, collection string, ids []string) (map[string]string, error)
	Count(ctx context.Context, collection string) (int64, error)
}

type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS index_entry (
			collection   TEXT NOT NULL,
			entry_id     TEXT NOT NULL,
			content      TEXT NOT NULL,
			metadata     JSONB NOT NULL DEFAULT '{}',
			content_hash TEXT NOT NULL,
			embedding    vector(768),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, entry_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertEntries re-adds by id: a colliding (collection, entry_id) pair
// overwrites the stored row, which is what makes re-indexing idempotent.
func (r *PgRepository) UpsertEntries(ctx context.Context, collection string, entries []IndexEntry) error {
	for _, e := range entries {
		metaJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", e.ID, err)
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO index_entry (collection, entry_id, content, metadata, content_hash, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (collection, entry_id) DO UPDATE SET
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				content_hash = EXCLUDED.content_hash,
				embedding = EXCLUDED.embedding,
				updated_at = now()
		`, collection, e.ID, e.Content, metaJSON, e.ContentHash, pgvector.NewVector(e.Embedding))
		if err != nil {
			return fmt.Errorf("upsert entry %s in %s: %w", e.ID, collection, err)
		}
	}
	return nil
}

// Search returns the k nearest neighbors by cosine distance, closest first.
func (r *PgRepository) Search(ctx context.Context, collection string, embedding []float32, limit int) ([]Neighbor, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT content, metadata, embedding <=> $2 AS distance
		FROM index_entry
		WHERE collection = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, collection, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var (
			n        Neighbor
			metaJSON []byte
		)
		if err := rows.Scan(&n.Content, &metaJSON, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("decode neighbor metadata: %w", err)
		}
		neighbors = append(neighbors, n)
	}

	return neighbors, rows.Err()
}

// ContentHashes returns the stored content hash for each known id, letting
// the indexer skip re-embedding unchanged chunks.
func (r *PgRepository) ContentHashes(ctx context.Context, collection string, ids []string) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT entry_id, content_hash
		FROM index_entry
		WHERE collection = $1 AND entry_id = ANY($2)
	`, collection, ids)
	if err != nil {
		return nil, fmt.Errorf("load content hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scan content hash: %w", err)
		}
		hashes[id] = hash
	}

	return hashes, rows.Err()
}

func (r *PgRepository) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM index_entry WHERE collection = $1
	`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}
