package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/crestline-ai/reglens/internal/domain"
)

// FallbackChunkRepository defines the persistence surface for the backfill.
type FallbackChunkRepository interface {
	// ListFallbackEmbedded returns chunks still carrying hash-derived embeddings
	ListFallbackEmbedded(ctx context.Context, limit int) ([]domain.Chunk, error)

	// UpdateEmbedding replaces a chunk's embedding with a model-produced one
	UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// Embedder generates dense embeddings for chunk content
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingBackfill upgrades hash-fallback embeddings to real model
// embeddings once an embedding client is available. One pass handles at most
// batchSize chunks; the surrounding Worker drives repeated passes.
type EmbeddingBackfill struct {
	repo      FallbackChunkRepository
	embedder  Embedder
	batchSize int
}

// NewEmbeddingBackfill creates a new EmbeddingBackfill instance
func NewEmbeddingBackfill(repo FallbackChunkRepository, embedder Embedder, batchSize int) *EmbeddingBackfill {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &EmbeddingBackfill{
		repo:      repo,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (b *EmbeddingBackfill) ProcessJobs(ctx context.Context) error {
	chunks, err := b.repo.ListFallbackEmbedded(ctx, b.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list fallback chunks: %w", err)
	}

	if len(chunks) == 0 {
		return nil
	}

	log.Printf("Backfilling embeddings for %d chunks", len(chunks))

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed backfill batch: %w", err)
	}

	for i, chunk := range chunks {
		if err := b.repo.UpdateEmbedding(ctx, chunk.ChunkID, embeddings[i]); err != nil {
			log.Printf("Error updating embedding for chunk %s: %v", chunk.ChunkID, err)
		}
	}

	return nil
}
