package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/crestline-ai/reglens/internal/domain"
	"github.com/crestline-ai/reglens/internal/telemetry"
)

// ChunkWriteRepository is the store surface ingestion depends on.
type ChunkWriteRepository interface {
	UpsertChunks(ctx context.Context, rows []domain.PersistedChunk) (int, error)
}

// TableExtractor converts raw document bytes into plain text plus any tables
// serialized as delimited text.
type TableExtractor interface {
	Parse(data []byte, filename string) (string, []domain.ExtractedTable, error)
}

// DocumentArchiver stores raw document bytes for provenance. Optional:
// archive failures never fail an ingestion.
type DocumentArchiver interface {
	Archive(ctx context.Context, documentID, filename string, data []byte) error
}

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	DocumentID string
	ChunkCount int
	TableCount int
	ElapsedMS  int64
}

// IngestionService composes extraction, chunking, embedding, and persistence
// into one atomic per-document operation.
type IngestionService struct {
	repo      ChunkWriteRepository
	embedder  *EmbeddingService
	chunker   *HierarchicalChunker
	extractor TableExtractor
	archiver  DocumentArchiver
}

func NewIngestionService(repo ChunkWriteRepository, embedder *EmbeddingService, chunker *HierarchicalChunker, extractor TableExtractor) *IngestionService {
	return &IngestionService{
		repo:      repo,
		embedder:  embedder,
		chunker:   chunker,
		extractor: extractor,
	}
}

// WithArchiver enables raw-document archival after successful ingestion.
func (s *IngestionService) WithArchiver(archiver DocumentArchiver) *IngestionService {
	s.archiver = archiver
	return s
}

// Ingest parses, chunks, embeds, and persists one document. The whole chunk
// batch is written in a single store transaction: either every chunk of the
// document becomes visible or none does.
func (s *IngestionService) Ingest(ctx context.Context, documentBytes []byte, filename string, metadata map[string]string) (*IngestResult, error) {
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "ingestion.ingest", telemetry.SpanAttributes{Operation: "ingest"})
	defer span.End()

	documentID := metadata["document_id"]
	if documentID == "" {
		documentID = uuid.NewString()
	}

	text, tables, err := s.extractor.Parse(documentBytes, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %q: %w", filename, err)
	}

	baseMetadata := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		baseMetadata[k] = v
	}
	baseMetadata["document_id"] = documentID

	chunks := s.chunker.ChunkDocument(documentID, text, baseMetadata)
	chunks = append(chunks, s.tableChunks(documentID, filename, tables, baseMetadata)...)

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	embeddings, embeddingSource := s.embedder.Embed(ctx, contents)

	rows := make([]domain.PersistedChunk, len(chunks))
	for i, chunk := range chunks {
		rowMetadata := make(map[string]string, len(chunk.Metadata)+2)
		for k, v := range chunk.Metadata {
			rowMetadata[k] = v
		}
		rowMetadata["level"] = string(chunk.Level)
		rowMetadata["embedding_source"] = embeddingSource

		chunk.Metadata = rowMetadata
		rows[i] = domain.PersistedChunk{
			Chunk:        chunk,
			Embedding:    embeddings[i],
			SparseTokens: s.embedder.Tokenize(chunk.Content),
		}
	}

	stored, err := s.repo.UpsertChunks(ctx, rows)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, documentID, filename, documentBytes); err != nil {
			log.Printf("document archive failed (continuing): document_id=%s file=%s err=%v", documentID, filename, err)
		}
	}

	elapsed := time.Since(start).Milliseconds()
	log.Printf("ingested document: document_id=%s chunks=%d tables=%d elapsed_ms=%d", documentID, stored, len(tables), elapsed)

	return &IngestResult{
		DocumentID: documentID,
		ChunkCount: stored,
		TableCount: len(tables),
		ElapsedMS:  elapsed,
	}, nil
}

// tableChunks flattens extracted tables into table-level chunks. Table chunks
// are created without a parent; linking them under the title chunk is pending
// product sign-off.
func (s *IngestionService) tableChunks(documentID, filename string, tables []domain.ExtractedTable, baseMetadata map[string]string) []domain.Chunk {
	var chunks []domain.Chunk
	for i, table := range tables {
		if table.Delimited == "" {
			continue
		}
		tableMetadata := make(map[string]string, len(baseMetadata)+3)
		for k, v := range baseMetadata {
			tableMetadata[k] = v
		}
		tableMetadata["table_id"] = table.ID
		tableMetadata["table_title"] = table.Title
		tableMetadata["source_file"] = filename

		key := fmt.Sprintf("table/%d", i)
		if table.ID != "" {
			key = "table/" + table.ID
		}
		chunks = append(chunks, domain.Chunk{
			ChunkID:    ChunkID(documentID, key),
			DocumentID: documentID,
			Level:      domain.LevelTable,
			Content:    table.Delimited,
			Metadata:   tableMetadata,
		})
	}
	return chunks
}
