package retrieval

import (
	"context"
	"math"

	"github.com/poiesic/syllabus/core"
)

// IdealRatios is the target share of each chunk type in a well balanced course.
var IdealRatios = map[core.ChunkType]float64{
	core.ChunkTypeDefinition:  0.30,
	core.ChunkTypeExample:     0.25,
	core.ChunkTypeApplication: 0.25,
	core.ChunkTypeProcedure:   0.15,
	core.ChunkTypeConcept:     0.05,
}

// Coverage summarizes how a topic's chunks are spread across types.
type Coverage struct {
	Total        int
	ByType       map[core.ChunkType]int
	BalanceScore float64 // 1 means the ideal mix, 0 means no chunks
}

// Coverage analyzes the chunks stored for every subtopic of a topic,
// published or not.
func (r *Retriever) Coverage(ctx context.Context, topicID core.ID) (*Coverage, error) {
	counts, err := r.chunks.CountChunksByType(ctx, topicID)
	if err != nil {
		r.logger.Error("error counting chunks", "topic", topicID, "err", err)
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return &Coverage{
		Total:        total,
		ByType:       counts,
		BalanceScore: BalanceScore(counts),
	}, nil
}

// BalanceScore averages, over the ideal types, one minus the absolute
// deviation of each type's share from its ideal share.
func BalanceScore(counts map[core.ChunkType]int) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	var score float64
	for _, typ := range core.ChunkTypes {
		actual := float64(counts[typ]) / float64(total)
		score += math.Max(0, 1-math.Abs(actual-IdealRatios[typ]))
	}
	return score / float64(len(IdealRatios))
}
