package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/crestline-ai/reglens/internal/domain"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository handles persistence of document chunks and their dense and
// sparse representations.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// UpsertChunks writes the batch in one transaction. Conflicting IDs update
// content, metadata, embedding, and sparse tokens in place; created_at keeps
// its original value so re-ingestion is idempotent. Returns the number of
// rows written.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, rows []domain.PersistedChunk) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, domain.NewStoreFailure("begin upsert", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if err := upsertChunk(ctx, tx, row); err != nil {
			return 0, domain.NewStoreFailure("upsert chunk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, domain.NewStoreFailure("commit upsert", err)
	}
	return len(rows), nil
}

func upsertChunk(ctx context.Context, db dbtx, row domain.PersistedChunk) error {
	var embedding any
	if len(row.Embedding) > 0 {
		embedding = pgvector.NewVector(row.Embedding)
	}

	_, err := db.Exec(ctx,
		`INSERT INTO document_chunks
			(id, document_id, parent_id, level, content, metadata, embedding, sparse_tokens)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			sparse_tokens = EXCLUDED.sparse_tokens`,
		row.ChunkID,
		row.DocumentID,
		nullableString(row.ParentID),
		string(row.Level),
		row.Content,
		row.Metadata,
		embedding,
		row.SparseTokens,
	)
	return err
}

// DenseSearch returns the chunks nearest to the query vector by cosine
// distance, scored as 1 - distance.
func (r *ChunkRepository) DenseSearch(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalHit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, content, level, metadata, embedding <=> $1 AS distance
		 FROM document_chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY distance
		 LIMIT $2`,
		pgvector.NewVector(queryVector), limit,
	)
	if err != nil {
		return nil, domain.NewStoreFailure("dense search", err)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var hit domain.RetrievalHit
		var level string
		var distance float64
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Content, &level, &hit.Metadata, &distance); err != nil {
			return nil, domain.NewStoreFailure("scan dense hit", err)
		}
		hit.Level = domain.ChunkLevel(level)
		hit.Score = 1 - distance
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// FetchSparseCorpus loads up to limit chunks with their persisted token
// lists, oldest first so the corpus window is stable across calls.
func (r *ChunkRepository) FetchSparseCorpus(ctx context.Context, limit int) ([]domain.SparseCorpusEntry, error) {
	if limit <= 0 {
		limit = 5000
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, content, metadata, COALESCE(sparse_tokens, '{}')
		 FROM document_chunks
		 ORDER BY created_at, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, domain.NewStoreFailure("fetch sparse corpus", err)
	}
	defer rows.Close()

	var entries []domain.SparseCorpusEntry
	for rows.Next() {
		var entry domain.SparseCorpusEntry
		if err := rows.Scan(&entry.ChunkID, &entry.DocumentID, &entry.Content, &entry.Metadata, &entry.Tokens); err != nil {
			return nil, domain.NewStoreFailure("scan sparse entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListFallbackEmbedded returns chunks still carrying hash-derived embeddings,
// for the backfill worker to re-embed.
func (r *ChunkRepository) ListFallbackEmbedded(ctx context.Context, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		limit = 64
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, content, level, metadata
		 FROM document_chunks
		 WHERE metadata->>'embedding_source' = 'fallback'
		 ORDER BY created_at, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, domain.NewStoreFailure("list fallback chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var level string
		if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.Content, &level, &chunk.Metadata); err != nil {
			return nil, domain.NewStoreFailure("scan fallback chunk", err)
		}
		chunk.Level = domain.ChunkLevel(level)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// UpdateEmbedding replaces a chunk's embedding and flips its provenance
// marker to the model source.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE document_chunks
		 SET embedding = $2,
		     metadata = metadata || jsonb_build_object('embedding_source', 'model')
		 WHERE id = $1`,
		chunkID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return domain.NewStoreFailure("update embedding", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
