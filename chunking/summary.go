package chunking

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/syllabus/core"
)

// summaryPreviewLength bounds each entry of a context summary, in runes.
const summaryPreviewLength = 200

// importance ranks chunk types for summaries; lower sorts first.
var importance = map[core.ChunkType]int{
	core.ChunkTypeDefinition:  0,
	core.ChunkTypeConcept:     1,
	core.ChunkTypeApplication: 2,
	core.ChunkTypeProcedure:   3,
	core.ChunkTypeExample:     4,
}

// Summarize condenses chunks into a context block, most important types
// first. Chunks of equal importance keep their input order.
func Summarize(chunks []*core.ContentChunk) string {
	sorted := slices.Clone(chunks)
	slices.SortStableFunc(sorted, func(a, b *core.ContentChunk) int {
		return rank(a.Type) - rank(b.Type)
	})

	parts := make([]string, 0, len(sorted))
	for _, chunk := range sorted {
		parts = append(parts, fmt.Sprintf("[%s] %s...", strings.ToUpper(string(chunk.Type)), Preview(chunk.Content, summaryPreviewLength)))
	}
	return strings.Join(parts, "\n\n")
}

func rank(t core.ChunkType) int {
	if r, ok := importance[t]; ok {
		return r
	}
	return len(importance)
}

// Preview returns at most n runes from the start of s.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Tail returns at most n runes from the end of s.
func Tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
