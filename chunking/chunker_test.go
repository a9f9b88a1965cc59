package chunking

import (
	"strings"
	"testing"

	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

const (
	definitionPara  = "A goroutine is a lightweight thread managed by the Go runtime rather than the operating system."
	examplePara     = "For example, consider a web server that handles each incoming request in its own goroutine."
	procedurePara   = "First, create a channel with make. Then start a worker goroutine that reads from it until it closes."
	applicationPara = "Worker pools help in practice when throughput matters, because they bound resource usage under load."
	conceptPara     = "Goroutines communicate by sharing memory through channels rather than locking shared state directly."
)

func TestClassify_Priority(t *testing.T) {
	c := New()
	tests := []struct {
		name      string
		paragraph string
		want      core.ChunkType
	}{
		{"definition", definitionPara, core.ChunkTypeDefinition},
		{"example", examplePara, core.ChunkTypeExample},
		{"procedure", procedurePara, core.ChunkTypeProcedure},
		{"application", applicationPara, core.ChunkTypeApplication},
		{"concept", conceptPara, core.ChunkTypeConcept},
		{"definition beats example", "For example, a mutex is a lock that guards shared state from concurrent writers.", core.ChunkTypeDefinition},
		{"example beats procedure", "Imagine you first open a file and then forget to close it before the process exits.", core.ChunkTypeExample},
		{"markdown does not hide cues", "**Step** 2: open the connection pool and keep a reference to it for later reuse.", core.ChunkTypeProcedure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.paragraph))
		})
	}
}

func TestChunk_SplitsAndKeepsOrder(t *testing.T) {
	content := strings.Join([]string{definitionPara, examplePara, procedurePara, applicationPara, conceptPara}, "\n\n")
	chunks := Chunk(content, "Goroutines")

	require.Len(t, chunks, 5)
	assert.Equal(t, core.ChunkTypeDefinition, chunks[0].Type)
	assert.Equal(t, core.ChunkTypeExample, chunks[1].Type)
	assert.Equal(t, core.ChunkTypeProcedure, chunks[2].Type)
	assert.Equal(t, core.ChunkTypeApplication, chunks[3].Type)
	assert.Equal(t, core.ChunkTypeConcept, chunks[4].Type)
	assert.Equal(t, definitionPara, chunks[0].Content)
	assert.Equal(t, len(strings.Fields(definitionPara)), chunks[0].TokenCount)
}

func TestChunk_FallbackConcept(t *testing.T) {
	chunks := Chunk(definitionPara+"\n\n"+examplePara, "Goroutines")
	require.Len(t, chunks, 3)
	last := chunks[2]
	assert.Equal(t, core.ChunkTypeConcept, last.Type)
	assert.Equal(t, "Core concept: Goroutines", last.Content)
}

func TestChunk_AlwaysAtLeastOneChunk(t *testing.T) {
	for _, content := range []string{"", "   ", "short\n\ntiny", "\n\n\n\n"} {
		chunks := Chunk(content, "Empty")
		require.Len(t, chunks, 1, "content %q", content)
		assert.Equal(t, core.ChunkTypeConcept, chunks[0].Type)
		assert.Equal(t, "Core concept: Empty", chunks[0].Content)
	}
}

func TestChunk_NoFallbackWhenConceptPresent(t *testing.T) {
	chunks := Chunk(conceptPara, "Channels")
	require.Len(t, chunks, 1)
	assert.Equal(t, conceptPara, chunks[0].Content)
}

func TestChunk_DropsShortParagraphs(t *testing.T) {
	exactly50 := strings.Repeat("x", 50)
	chunks := New().Chunk(exactly50+"\n\n"+conceptPara, "T")
	require.Len(t, chunks, 1)
	assert.Equal(t, conceptPara, chunks[0].Content)

	chunks = New(WithMinParagraphLength(10)).Chunk("a paragraph of moderate size", "T")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a paragraph of moderate size", chunks[0].Content)
}

func TestChunk_BlankLinesWithWhitespace(t *testing.T) {
	chunks := Chunk(definitionPara+"\n   \n"+conceptPara, "T")
	require.Len(t, chunks, 2)
}

func TestPlainText(t *testing.T) {
	md := goldmark.New()
	assert.Equal(t, "Definition A channel is typed.", PlainText(md, "## Definition\n\nA *channel* is **typed**."))
	assert.Equal(t, "use go run main.go", PlainText(md, "use `go run main.go`"))
	assert.Equal(t, "line one line two", PlainText(md, "line one\nline two"))
}

func TestSummarize(t *testing.T) {
	chunks := []*core.ContentChunk{
		{Type: core.ChunkTypeExample, Content: "example text"},
		{Type: core.ChunkTypeDefinition, Content: strings.Repeat("d", 300)},
		{Type: core.ChunkTypeConcept, Content: "concept text"},
	}
	got := Summarize(chunks)
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "[DEFINITION] "+strings.Repeat("d", 200)+"...", parts[0])
	assert.Equal(t, "[CONCEPT] concept text...", parts[1])
	assert.Equal(t, "[EXAMPLE] example text...", parts[2])
	assert.Equal(t, core.ChunkTypeExample, chunks[0].Type, "input must not be reordered")
}

func TestPreviewAndTail(t *testing.T) {
	assert.Equal(t, "héllo", Preview("héllo wörld", 5))
	assert.Equal(t, "wörld", Tail("héllo wörld", 5))
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "short", Tail("short", 10))
}
