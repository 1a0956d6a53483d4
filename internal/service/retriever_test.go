package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-ai/reglens/internal/domain"
)

type stubSearchRepo struct {
	denseHits []domain.RetrievalHit
	denseErr  error
	corpus    []domain.SparseCorpusEntry
	corpusErr error
}

func (s *stubSearchRepo) DenseSearch(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalHit, error) {
	if s.denseErr != nil {
		return nil, s.denseErr
	}
	if len(s.denseHits) > limit {
		return s.denseHits[:limit], nil
	}
	return s.denseHits, nil
}

func (s *stubSearchRepo) FetchSparseCorpus(ctx context.Context, limit int) ([]domain.SparseCorpusEntry, error) {
	if s.corpusErr != nil {
		return nil, s.corpusErr
	}
	return s.corpus, nil
}

func newTestRetriever(repo *stubSearchRepo) *HybridRetriever {
	return NewHybridRetriever(repo, NewEmbeddingService(nil, 16), DefaultRetrieverConfig())
}

func TestRetrieve_FusesBothBranches(t *testing.T) {
	repo := &stubSearchRepo{
		denseHits: []domain.RetrievalHit{
			{ChunkID: "c1", DocumentID: "d1", Content: "interest rate risk", Level: domain.LevelParagraph, Score: 0.9},
			{ChunkID: "c2", DocumentID: "d1", Content: "liquidity buffers", Level: domain.LevelParagraph, Score: 0.7},
		},
		corpus: []domain.SparseCorpusEntry{
			{ChunkID: "c2", DocumentID: "d1", Content: "liquidity buffers", Tokens: []string{"liquidity", "buffers"}},
			{ChunkID: "c3", DocumentID: "d2", Content: "liquidity reporting", Tokens: []string{"liquidity", "reporting"}},
		},
	}
	retriever := newTestRetriever(repo)

	hits, err := retriever.Retrieve(context.Background(), "liquidity", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	// c2 appears in both branches and must rank first.
	assert.Equal(t, "c2", hits[0].ChunkID)

	seen := map[string]bool{}
	for _, hit := range hits {
		seen[hit.ChunkID] = true
	}
	assert.True(t, seen["c1"])
	assert.True(t, seen["c3"])
}

func TestRetrieve_SparseAttributesWinForOverlap(t *testing.T) {
	repo := &stubSearchRepo{
		denseHits: []domain.RetrievalHit{
			{ChunkID: "c1", DocumentID: "d1", Content: "dense copy", Level: domain.LevelParagraph},
		},
		corpus: []domain.SparseCorpusEntry{
			{
				ChunkID:    "c1",
				DocumentID: "d1",
				Content:    "sparse copy",
				Tokens:     []string{"sparse", "copy"},
				Metadata:   map[string]string{"level": "section"},
			},
		},
	}
	retriever := newTestRetriever(repo)

	hits, err := retriever.Retrieve(context.Background(), "sparse", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "sparse copy", hits[0].Content)
	assert.Equal(t, domain.LevelSection, hits[0].Level)
}

func TestRetrieve_TruncatesToTopK(t *testing.T) {
	repo := &stubSearchRepo{
		denseHits: []domain.RetrievalHit{
			{ChunkID: "c1"}, {ChunkID: "c2"}, {ChunkID: "c3"}, {ChunkID: "c4"},
		},
	}
	retriever := newTestRetriever(repo)

	hits, err := retriever.Retrieve(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	retriever := newTestRetriever(&stubSearchRepo{})

	hits, err := retriever.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieve_FusedScoresReplaceBranchScores(t *testing.T) {
	repo := &stubSearchRepo{
		denseHits: []domain.RetrievalHit{{ChunkID: "c1", Score: 0.95}},
	}
	retriever := newTestRetriever(repo)

	hits, err := retriever.Retrieve(context.Background(), "anything", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0/61.0, hits[0].Score, 1e-12)
}

func TestRetrieve_PropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")

	_, err := newTestRetriever(&stubSearchRepo{denseErr: storeErr}).Retrieve(context.Background(), "q", 2)
	assert.ErrorIs(t, err, storeErr)

	_, err = newTestRetriever(&stubSearchRepo{corpusErr: storeErr}).Retrieve(context.Background(), "q", 2)
	assert.ErrorIs(t, err, storeErr)
}
