package retrieval

import (
	"fmt"
	"strings"

	"github.com/poiesic/syllabus/chunking"
	"github.com/poiesic/syllabus/core"
)

const (
	// maxChunksPerType bounds each type section of a formatted context.
	maxChunksPerType = 3
	// chunkPreviewLength bounds each chunk in a formatted context, in runes.
	chunkPreviewLength = 300
	// previousTailLength is how much of the previous lesson's ending is kept, in runes.
	previousTailLength = 500
)

// FormatContext renders retrieved chunks, grouped by type in first-seen
// order, followed by the end of the previous lesson. It returns "" when
// there is nothing to render.
func FormatContext(chunks []*core.RelevantChunk, previous string) string {
	var parts []string

	if len(chunks) > 0 {
		parts = append(parts, "RELEVANT CONCEPTS FROM PREVIOUS LESSONS:")

		var order []core.ChunkType
		byType := make(map[core.ChunkType][]*core.RelevantChunk)
		for _, chunk := range chunks {
			if _, seen := byType[chunk.Type]; !seen {
				order = append(order, chunk.Type)
			}
			byType[chunk.Type] = append(byType[chunk.Type], chunk)
		}

		for _, typ := range order {
			parts = append(parts, fmt.Sprintf("\n%s concepts:", strings.ToUpper(string(typ))))
			group := byType[typ]
			for _, chunk := range group[:min(len(group), maxChunksPerType)] {
				parts = append(parts, fmt.Sprintf("- %s...", chunking.Preview(chunk.Content, chunkPreviewLength)))
			}
		}
	}

	if previous != "" {
		parts = append(parts, "\nPREVIOUS LESSON CONCLUSION:")
		parts = append(parts, chunking.Tail(previous, previousTailLength))
	}

	return strings.Join(parts, "\n")
}
