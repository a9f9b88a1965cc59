package retrieval

import (
	"strings"
	"testing"

	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
)

func hit(typ core.ChunkType, content string) *core.RelevantChunk {
	return &core.RelevantChunk{Type: typ, Content: content}
}

func TestFormatContext(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", FormatContext(nil, ""))
	})

	t.Run("groups by type in first-seen order", func(t *testing.T) {
		got := FormatContext([]*core.RelevantChunk{
			hit(core.ChunkTypeExample, "ex one"),
			hit(core.ChunkTypeDefinition, "def one"),
			hit(core.ChunkTypeExample, "ex two"),
		}, "")

		want := strings.Join([]string{
			"RELEVANT CONCEPTS FROM PREVIOUS LESSONS:",
			"\nEXAMPLE concepts:",
			"- ex one...",
			"- ex two...",
			"\nDEFINITION concepts:",
			"- def one...",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("at most three per type", func(t *testing.T) {
		var chunks []*core.RelevantChunk
		for _, c := range []string{"a", "b", "c", "d"} {
			chunks = append(chunks, hit(core.ChunkTypeConcept, c))
		}
		got := FormatContext(chunks, "")
		assert.Contains(t, got, "- c...")
		assert.NotContains(t, got, "- d...")
	})

	t.Run("previews and tail are bounded", func(t *testing.T) {
		long := strings.Repeat("x", 400)
		previous := strings.Repeat("a", 100) + strings.Repeat("b", 500)

		got := FormatContext([]*core.RelevantChunk{hit(core.ChunkTypeConcept, long)}, previous)
		assert.Contains(t, got, "- "+strings.Repeat("x", 300)+"...\n")
		assert.True(t, strings.HasSuffix(got, "PREVIOUS LESSON CONCLUSION:\n"+strings.Repeat("b", 500)))
	})

	t.Run("previous only", func(t *testing.T) {
		assert.Equal(t, "\nPREVIOUS LESSON CONCLUSION:\nthe end", FormatContext(nil, "the end"))
	})
}

func TestBalanceScore(t *testing.T) {
	t.Run("no chunks", func(t *testing.T) {
		assert.Equal(t, 0.0, BalanceScore(nil))
	})

	t.Run("ideal mix", func(t *testing.T) {
		counts := map[core.ChunkType]int{
			core.ChunkTypeDefinition:  30,
			core.ChunkTypeExample:     25,
			core.ChunkTypeApplication: 25,
			core.ChunkTypeProcedure:   15,
			core.ChunkTypeConcept:     5,
		}
		assert.InDelta(t, 1.0, BalanceScore(counts), 1e-9)
	})

	t.Run("only definitions", func(t *testing.T) {
		counts := map[core.ChunkType]int{core.ChunkTypeDefinition: 4}
		// (0.3 + 0.75 + 0.75 + 0.85 + 0.95) / 5
		assert.InDelta(t, 0.72, BalanceScore(counts), 1e-9)
	})
}
