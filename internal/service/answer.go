package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crestline-ai/reglens/internal/domain"
	"github.com/crestline-ai/reglens/internal/telemetry"
)

const notFoundMessage = "No relevant answer found."

// Retriever finds the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error)
}

// GenerationClient produces a natural-language answer from a question and a
// pre-assembled context block.
type GenerationClient interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

// QueryResult is the orchestrator's answer to one question.
type QueryResult struct {
	Answer     string                `json:"answer"`
	References []domain.RetrievalHit `json:"references,omitempty"`
	Grounded   bool                  `json:"grounded"`
	LatencyMS  int64                 `json:"latency_ms"`
}

// AnswerService orchestrates retrieval and answer synthesis. When no
// generation client is configured, or generation fails, it degrades to an
// extractive answer built from the best retrieved chunk so that queries keep
// working on retrieval alone.
type AnswerService struct {
	retriever Retriever
	generator GenerationClient
}

// NewAnswerService creates an AnswerService. generator may be nil.
func NewAnswerService(retriever Retriever, generator GenerationClient) *AnswerService {
	return &AnswerService{retriever: retriever, generator: generator}
}

// Answer retrieves context for the question and synthesizes a reply. The
// question must be non-empty after trimming. References are attached only
// when auditTrail is set.
func (s *AnswerService) Answer(ctx context.Context, question string, topK int, auditTrail bool) (*QueryResult, error) {
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	ctx, span := telemetry.StartSpan(ctx, "answer.query", telemetry.SpanAttributes{Operation: "query"})
	defer span.End()

	hits, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &QueryResult{}
	if auditTrail {
		result.References = hits
	}

	if len(hits) == 0 {
		result.Answer = notFoundMessage
		result.LatencyMS = time.Since(start).Milliseconds()
		return result, nil
	}
	result.Grounded = true

	result.Answer = s.synthesize(ctx, question, hits)
	result.LatencyMS = time.Since(start).Milliseconds()
	return result, nil
}

func (s *AnswerService) synthesize(ctx context.Context, question string, hits []domain.RetrievalHit) string {
	if s.generator != nil {
		answer, err := s.generator.Generate(ctx, question, formatContext(hits))
		if err == nil {
			return answer
		}
		telemetry.CaptureError(ctx, err)
	}
	return extractiveAnswer(question, hits[0])
}

// formatContext renders retrieved chunks into the context block handed to the
// generation model. Each block is headed by the chunk ID so the model can
// cite it.
func formatContext(hits []domain.RetrievalHit) string {
	blocks := make([]string, len(hits))
	for i, hit := range hits {
		blocks[i] = fmt.Sprintf("[%s] doc=%s level=%s score=%.4f\n%s",
			hit.ChunkID, hit.DocumentID, hit.Level, hit.Score, hit.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// extractiveAnswer quotes the best-ranked chunk when no model is available.
func extractiveAnswer(question string, best domain.RetrievalHit) string {
	return fmt.Sprintf("Answer synthesized without LLM due to configuration limits.\nQuestion: %s\nBest match (%s): %s",
		question, best.ChunkID, best.Content)
}
