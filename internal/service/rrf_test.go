package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-ai/reglens/internal/domain"
)

func hitsFor(ids ...string) []domain.RetrievalHit {
	hits := make([]domain.RetrievalHit, len(ids))
	for i, id := range ids {
		hits[i] = domain.RetrievalHit{ChunkID: id}
	}
	return hits
}

func TestRRF_BothSourcesOutrankSingle(t *testing.T) {
	fused := reciprocalRankFusion([]rankedList{
		{source: sourceDense, hits: hitsFor("a", "b")},
		{source: sourceSparse, hits: hitsFor("b", "c")},
	}, 60)

	require.Len(t, fused, 3)
	assert.Equal(t, "b", fused[0].chunkID)
	assert.Greater(t, fused[0].score, fused[1].score)
}

func TestRRF_ScoreAccumulation(t *testing.T) {
	fused := reciprocalRankFusion([]rankedList{
		{source: sourceDense, hits: hitsFor("a")},
		{source: sourceSparse, hits: hitsFor("a")},
	}, 60)

	require.Len(t, fused, 1)
	assert.InDelta(t, 2.0/61.0, fused[0].score, 1e-12)
}

func TestRRF_ProvenanceIsFirstSource(t *testing.T) {
	fused := reciprocalRankFusion([]rankedList{
		{source: sourceDense, hits: hitsFor("a", "b")},
		{source: sourceSparse, hits: hitsFor("b", "c")},
	}, 60)

	provenance := map[string]string{}
	for _, f := range fused {
		provenance[f.chunkID] = f.provenance
	}

	assert.Equal(t, sourceDense, provenance["a"])
	assert.Equal(t, sourceDense, provenance["b"])
	assert.Equal(t, sourceSparse, provenance["c"])
}

func TestRRF_TieBreaksByChunkID(t *testing.T) {
	// Same rank in disjoint sources gives identical scores.
	fused := reciprocalRankFusion([]rankedList{
		{source: sourceDense, hits: hitsFor("zz")},
		{source: sourceSparse, hits: hitsFor("aa")},
	}, 60)

	require.Len(t, fused, 2)
	assert.Equal(t, "aa", fused[0].chunkID)
	assert.Equal(t, "zz", fused[1].chunkID)
	assert.Equal(t, fused[0].score, fused[1].score)
}

func TestRRF_EmptyRankings(t *testing.T) {
	assert.Empty(t, reciprocalRankFusion(nil, 60))
	assert.Empty(t, reciprocalRankFusion([]rankedList{{source: sourceDense}}, 60))
}
