package domain

import "time"

// ChunkLevel identifies the granularity of a chunk within a document tree.
// The set is an open enumeration: stores and retrievers treat unknown levels
// as opaque strings.
type ChunkLevel string

const (
	LevelTitle     ChunkLevel = "title"
	LevelSection   ChunkLevel = "section"
	LevelParagraph ChunkLevel = "paragraph"
	LevelTable     ChunkLevel = "table"
)

// Chunk is an in-flight retrieval unit produced during ingestion, before
// embedding and persistence.
type Chunk struct {
	ChunkID    string
	DocumentID string
	// ParentID links section and paragraph chunks to their parent within the
	// same document. Empty for title and table chunks (persisted as NULL).
	ParentID string
	Level    ChunkLevel
	Content  string
	Metadata map[string]string
}

// PersistedChunk is a Chunk enriched with its dense vector and sparse token
// list, as stored in document_chunks. CreatedAt is set on first insert and
// never overwritten by later upserts of the same ChunkID.
type PersistedChunk struct {
	Chunk
	Embedding    []float32
	SparseTokens []string
	CreatedAt    time.Time
}

// RetrievalHit is a query-scoped search result. Score is source-relative
// before fusion (dense: 1 - cosine distance; sparse: BM25) and becomes the
// fused RRF score afterwards.
type RetrievalHit struct {
	ChunkID    string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Level      ChunkLevel        `json:"level"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Score      float64           `json:"score"`
}

// SparseCorpusEntry is one row of the lexical corpus used to build the
// per-query BM25 index.
type SparseCorpusEntry struct {
	ChunkID    string
	DocumentID string
	Content    string
	Tokens     []string
	Metadata   map[string]string
}

// ExtractedTable is a table recovered from a source document, serialized as
// delimited text.
type ExtractedTable struct {
	ID        string
	Title     string
	Delimited string
}
