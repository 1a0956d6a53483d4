package service

import (
	"sort"

	"github.com/crestline-ai/reglens/internal/domain"
)

// rankedList is one named ranking source feeding fusion. Sources are
// evaluated in slice order; a chunk's provenance is the first source that
// contained it.
type rankedList struct {
	source string
	hits   []domain.RetrievalHit
}

// fusedScore is the RRF outcome for a single chunk.
type fusedScore struct {
	chunkID    string
	score      float64
	provenance string
}

// reciprocalRankFusion combines multiple ranked lists into a single ranking.
// Each occurrence of a chunk at 1-based rank r in a source contributes
// 1/(k+r) to its fused score. The result is sorted by fused score descending
// with ties broken by chunk ID ascending for reproducibility.
func reciprocalRankFusion(rankings []rankedList, k int) []fusedScore {
	accumulator := make(map[string]float64)
	provenance := make(map[string]string)

	for _, ranking := range rankings {
		for rank, hit := range ranking.hits {
			accumulator[hit.ChunkID] += 1.0 / float64(k+rank+1)
			if _, seen := provenance[hit.ChunkID]; !seen {
				provenance[hit.ChunkID] = ranking.source
			}
		}
	}

	fused := make([]fusedScore, 0, len(accumulator))
	for chunkID, score := range accumulator {
		fused = append(fused, fusedScore{
			chunkID:    chunkID,
			score:      score,
			provenance: provenance[chunkID],
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].chunkID < fused[j].chunkID
	})
	return fused
}
