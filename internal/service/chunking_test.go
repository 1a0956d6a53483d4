package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-ai/reglens/internal/domain"
)

func TestChunkDocument_Hierarchy(t *testing.T) {
	chunker := NewHierarchicalChunker(DefaultChunkerConfig())

	text := "Title\n\nHeading1\nline1\nline2\n\nHeading2\nline3"
	chunks := chunker.ChunkDocument("doc-1", text, map[string]string{"source": "test"})

	byLevel := map[domain.ChunkLevel][]domain.Chunk{}
	for _, c := range chunks {
		byLevel[c.Level] = append(byLevel[c.Level], c)
	}

	require.Len(t, byLevel[domain.LevelTitle], 1)
	require.Len(t, byLevel[domain.LevelSection], 2)
	require.Len(t, byLevel[domain.LevelParagraph], 3)

	title := byLevel[domain.LevelTitle][0]
	assert.Equal(t, "Title", title.Content)
	assert.Empty(t, title.ParentID)

	for _, section := range byLevel[domain.LevelSection] {
		assert.Equal(t, title.ChunkID, section.ParentID)
	}

	sections := byLevel[domain.LevelSection]
	assert.Equal(t, "Heading1", sections[0].Content)
	assert.Equal(t, "Heading2", sections[1].Content)

	paragraphs := byLevel[domain.LevelParagraph]
	assert.Equal(t, "line1", paragraphs[0].Content)
	assert.Equal(t, sections[0].ChunkID, paragraphs[0].ParentID)
	assert.Equal(t, "line3", paragraphs[2].Content)
	assert.Equal(t, sections[1].ChunkID, paragraphs[2].ParentID)

	for _, c := range chunks {
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, "test", c.Metadata["source"])
	}
}

func TestChunkDocument_DeterministicIDs(t *testing.T) {
	chunker := NewHierarchicalChunker(DefaultChunkerConfig())
	text := "Title\n\nSection heading\nparagraph one"

	first := chunker.ChunkDocument("doc-1", text, nil)
	second := chunker.ChunkDocument("doc-1", text, nil)
	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}

	other := chunker.ChunkDocument("doc-2", text, nil)
	assert.NotEqual(t, first[0].ChunkID, other[0].ChunkID)
}

func TestChunkDocument_ExplicitTitle(t *testing.T) {
	chunker := NewHierarchicalChunker(DefaultChunkerConfig())

	text := "Intro paragraph\n\nDetails heading\nbody line"
	chunks := chunker.ChunkDocument("doc-1", text, map[string]string{"title": "Annual Report"})

	require.NotEmpty(t, chunks)
	assert.Equal(t, domain.LevelTitle, chunks[0].Level)
	assert.Equal(t, "Annual Report", chunks[0].Content)

	// With an explicit title every segment becomes a section.
	var sections []domain.Chunk
	for _, c := range chunks {
		if c.Level == domain.LevelSection {
			sections = append(sections, c)
		}
	}
	require.Len(t, sections, 2)
	assert.Equal(t, "Intro paragraph", sections[0].Content)
}

func TestChunkDocument_TitleFallbackTruncation(t *testing.T) {
	chunker := NewHierarchicalChunker(DefaultChunkerConfig())

	long := ""
	for i := 0; i < 20; i++ {
		long += "0123456789"
	}
	chunks := chunker.ChunkDocument("doc-1", long, nil)

	require.NotEmpty(t, chunks)
	assert.Equal(t, domain.LevelTitle, chunks[0].Level)
	assert.Len(t, chunks[0].Content, 80)
}

func TestChunkDocument_EmptyText(t *testing.T) {
	chunker := NewHierarchicalChunker(DefaultChunkerConfig())

	assert.Nil(t, chunker.ChunkDocument("doc-1", "", nil))
	assert.Nil(t, chunker.ChunkDocument("doc-1", "   \n\t ", nil))
}

func TestChunkDocument_BlankSegmentHeading(t *testing.T) {
	_ = NewHierarchicalChunker(DefaultChunkerConfig())

	heading, body := extractHeading("  \n  ")
	assert.Equal(t, "Untitled Section", heading)
	assert.Empty(t, body)
}
