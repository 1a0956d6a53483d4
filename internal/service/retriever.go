package service

import (
	"context"
	"sort"

	"github.com/crestline-ai/reglens/internal/domain"
)

const (
	denseCandidateMultiplier  = 2
	sparseCandidateMultiplier = 4

	sourceDense  = "dense"
	sourceSparse = "sparse"
)

// ChunkSearchRepository is the store surface the retriever depends on.
type ChunkSearchRepository interface {
	DenseSearch(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalHit, error)
	FetchSparseCorpus(ctx context.Context, limit int) ([]domain.SparseCorpusEntry, error)
}

// RetrieverConfig tunes the hybrid retriever.
type RetrieverConfig struct {
	BM25K1            float64
	BM25B             float64
	RRFK              int
	SparseCorpusLimit int
}

// DefaultRetrieverConfig mirrors the service defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		BM25K1:            1.5,
		BM25B:             0.75,
		RRFK:              60,
		SparseCorpusLimit: 5000,
	}
}

// HybridRetriever blends dense vector search and on-the-fly BM25 scoring via
// Reciprocal Rank Fusion. The sparse index is rebuilt from the persisted
// corpus on every call, which bounds staleness to zero at the cost of
// per-query work proportional to the corpus fetch limit.
type HybridRetriever struct {
	repo     ChunkSearchRepository
	embedder *EmbeddingService
	cfg      RetrieverConfig
}

func NewHybridRetriever(repo ChunkSearchRepository, embedder *EmbeddingService, cfg RetrieverConfig) *HybridRetriever {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRetrieverConfig().RRFK
	}
	if cfg.SparseCorpusLimit <= 0 {
		cfg.SparseCorpusLimit = DefaultRetrieverConfig().SparseCorpusLimit
	}
	return &HybridRetriever{repo: repo, embedder: embedder, cfg: cfg}
}

// Retrieve returns up to topK chunks ranked by fused RRF score. Empty
// branches are not errors: with no indexed corpus the result is simply
// empty, which callers interpret as "not grounded".
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error) {
	denseHits, err := r.denseRetrieval(ctx, query, topK*denseCandidateMultiplier)
	if err != nil {
		return nil, err
	}

	sparseHits, err := r.sparseRetrieval(ctx, query, topK*sparseCandidateMultiplier)
	if err != nil {
		return nil, err
	}

	fused := reciprocalRankFusion([]rankedList{
		{source: sourceDense, hits: denseHits},
		{source: sourceSparse, hits: sparseHits},
	}, r.cfg.RRFK)

	// Display attributes come from whichever branch merged last: sparse hits
	// overwrite dense ones for chunks present in both. Only the score is
	// always replaced by the fused value.
	enriched := make(map[string]domain.RetrievalHit, len(denseHits)+len(sparseHits))
	for _, hit := range denseHits {
		enriched[hit.ChunkID] = hit
	}
	for _, hit := range sparseHits {
		enriched[hit.ChunkID] = hit
	}

	results := make([]domain.RetrievalHit, 0, len(fused))
	for _, f := range fused {
		hit := enriched[f.chunkID]
		hit.Score = f.score
		results = append(results, hit)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (r *HybridRetriever) denseRetrieval(ctx context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	vectors, _ := r.embedder.Embed(ctx, []string{query})
	return r.repo.DenseSearch(ctx, vectors[0], limit)
}

func (r *HybridRetriever) sparseRetrieval(ctx context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	corpus, err := r.repo.FetchSparseCorpus(ctx, r.cfg.SparseCorpusLimit)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	tokenized := make([][]string, len(corpus))
	for i, entry := range corpus {
		tokenized[i] = entry.Tokens
	}

	index := newBM25Index(tokenized, r.cfg.BM25K1, r.cfg.BM25B)
	scores := index.Scores(r.embedder.Tokenize(query))

	hits := make([]domain.RetrievalHit, len(corpus))
	for i, entry := range corpus {
		level := domain.LevelParagraph
		if l, ok := entry.Metadata["level"]; ok {
			level = domain.ChunkLevel(l)
		}
		hits[i] = domain.RetrievalHit{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Content:    entry.Content,
			Level:      level,
			Metadata:   entry.Metadata,
			Score:      scores[i],
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
