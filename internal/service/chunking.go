package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/crestline-ai/reglens/internal/domain"
)

var sectionSplitRe = regexp.MustCompile(`\n{2,}`)

// chunkIDNamespace seeds name-based chunk IDs. IDs are derived from the
// document ID and the chunk's structural position so that re-ingesting the
// same document produces the same IDs and upserts update rows in place
// instead of accumulating duplicates.
var chunkIDNamespace = uuid.MustParse("7a5e42da-9c1b-4c51-8f44-d2b0a4f1c9e3")

const titleFallbackChars = 80

// ChunkerConfig controls hierarchical chunking.
type ChunkerConfig struct {
	// MaxDepth is accepted for forward compatibility; the chunker currently
	// always produces the fixed title/section/paragraph hierarchy.
	MaxDepth int
}

// DefaultChunkerConfig provides sane defaults for chunking.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{MaxDepth: 3}
}

// HierarchicalChunker splits document text across title, section, and
// paragraph granularity.
type HierarchicalChunker struct {
	cfg ChunkerConfig
}

func NewHierarchicalChunker(cfg ChunkerConfig) *HierarchicalChunker {
	if cfg.MaxDepth <= 0 {
		cfg = DefaultChunkerConfig()
	}
	return &HierarchicalChunker{cfg: cfg}
}

// ChunkDocument turns raw text into an ordered chunk forest: one title chunk
// first, then a section chunk per blank-line-delimited segment, then a
// paragraph chunk per non-blank line of each section body. All chunks share
// the flat metadata map passed in. Empty or whitespace-only text yields no
// chunks.
func (c *HierarchicalChunker) ChunkDocument(documentID, text string, metadata map[string]string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	titleContent, hasExplicitTitle := metadata["title"]
	if !hasExplicitTitle {
		titleContent = firstRunes(text, titleFallbackChars)
	}

	title := c.makeChunk(documentID, "title", "", domain.LevelTitle, titleContent, metadata)
	chunks := []domain.Chunk{title}

	segments := sectionSplitRe.Split(text, -1)
	for i, segment := range segments {
		// Without an explicit title the leading segment is the title region,
		// not a section of its own.
		if i == 0 && !hasExplicitTitle {
			continue
		}

		heading, body := extractHeading(segment)
		section := c.makeChunk(documentID, fmt.Sprintf("section/%d", i), title.ChunkID, domain.LevelSection, heading, metadata)
		chunks = append(chunks, section)

		for j, paragraph := range splitParagraphs(body) {
			key := fmt.Sprintf("section/%d/paragraph/%d", i, j)
			chunks = append(chunks, c.makeChunk(documentID, key, section.ChunkID, domain.LevelParagraph, paragraph, metadata))
		}
	}

	return chunks
}

func (c *HierarchicalChunker) makeChunk(documentID, key, parentID string, level domain.ChunkLevel, content string, metadata map[string]string) domain.Chunk {
	return domain.Chunk{
		ChunkID:    ChunkID(documentID, key),
		DocumentID: documentID,
		ParentID:   parentID,
		Level:      level,
		Content:    strings.TrimSpace(content),
		Metadata:   metadata,
	}
}

// ChunkID derives a stable name-based UUID for a chunk from its document and
// structural position.
func ChunkID(documentID, key string) string {
	return uuid.NewSHA1(chunkIDNamespace, []byte(documentID+"/"+key)).String()
}

// extractHeading returns the first non-blank line of a segment as its heading
// and the remaining non-blank lines joined as its body.
func extractHeading(segment string) (heading, body string) {
	var lines []string
	for _, line := range strings.Split(segment, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return "Untitled Section", ""
	}
	return lines[0], strings.Join(lines[1:], "\n")
}

func splitParagraphs(body string) []string {
	var paragraphs []string
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
