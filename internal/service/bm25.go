package service

import "math"

// bm25Index is a transient Okapi BM25 index built per query over the sparse
// corpus. Uses the non-negative idf variant ln(1 + (N-df+0.5)/(df+0.5)) so
// lexical scores stay >= 0 regardless of term frequency skew.
type bm25Index struct {
	k1        float64
	b         float64
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

func newBM25Index(corpus [][]string, k1, b float64) *bm25Index {
	idx := &bm25Index{
		k1:        k1,
		b:         b,
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		docFreq:   make(map[string]int),
	}

	totalLen := 0
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
		for token := range tf {
			idx.docFreq[token]++
		}
	}

	if len(corpus) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(corpus))
	}
	return idx
}

// Scores returns one BM25 score per corpus document for the tokenized query.
func (idx *bm25Index) Scores(query []string) []float64 {
	scores := make([]float64, len(idx.termFreqs))
	if len(query) == 0 || idx.avgDocLen == 0 {
		return scores
	}

	n := float64(len(idx.termFreqs))
	for _, token := range query {
		df, ok := idx.docFreq[token]
		if !ok {
			continue
		}
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		for i, tf := range idx.termFreqs {
			freq := float64(tf[token])
			if freq == 0 {
				continue
			}
			norm := idx.k1 * (1 - idx.b + idx.b*float64(idx.docLens[i])/idx.avgDocLen)
			scores[i] += idf * (freq * (idx.k1 + 1)) / (freq + norm)
		}
	}
	return scores
}
