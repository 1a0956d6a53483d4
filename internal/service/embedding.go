package service

import (
	"context"
	"crypto/sha256"
	"log"
	"strings"
)

// EmbeddingClient defines the interface for generating dense embeddings.
type EmbeddingClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedding provenance markers recorded in chunk metadata. Fallback rows are
// picked up by the backfill worker once a real model becomes available.
const (
	EmbeddingSourceModel    = "model"
	EmbeddingSourceFallback = "fallback"
)

// EmbeddingService produces dense vectors and sparse token lists per chunk.
// When no client is configured, or the client fails mid-request, it degrades
// to a deterministic hash-derived vector so that identical text always maps
// to an identical vector.
type EmbeddingService struct {
	client EmbeddingClient
	dim    int
}

// NewEmbeddingService creates an EmbeddingService. client may be nil, in
// which case every embedding takes the fallback path.
func NewEmbeddingService(client EmbeddingClient, dim int) *EmbeddingService {
	return &EmbeddingService{client: client, dim: dim}
}

// HasModel reports whether a real embedding model is configured.
func (s *EmbeddingService) HasModel() bool {
	return s.client != nil
}

// Embed returns one vector per input text plus the source marker recording
// whether the model or the hash fallback produced the batch. It never fails:
// a client error degrades the whole batch to the fallback path.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, string) {
	if s.client != nil {
		vectors, err := s.client.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, EmbeddingSourceModel
		}
		log.Printf("embedding model call failed, using hash fallback: %v", err)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = fallbackEmbedding(text, s.dim)
	}
	return vectors, EmbeddingSourceFallback
}

// Tokenize lower-cases and splits on whitespace. The same tokenizer feeds
// both the persisted sparse token lists and query-time lexical scoring.
func (s *EmbeddingService) Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// fallbackEmbedding maps a SHA-256 digest of the text onto a fixed-dimension
// vector, repeating the digest bytes as needed and scaling each byte into
// [0, 1].
func fallbackEmbedding(text string, dim int) []float32 {
	digest := sha256.Sum256([]byte(text))
	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		vector[i] = float32(digest[i%len(digest)]) / 255.0
	}
	return vector
}
