package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/chunking"
	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("hello", 16)
	b := DeterministicVector("hello", 16)
	c := DeterministicVector("world", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.InDelta(t, 1.0, core.CosineSimilarity(a, b), 1e-5)
}

func TestMockEmbedder_RecordsBatches(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	_, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = m.EmbedTexts(ctx, []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, m.Batches())
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Empty(t, m.Batches())
	assert.Zero(t, m.CallCount())
}

func TestMockEmbedder_ConcurrentUse(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, m.CallCount())
}

func TestMockGenerator_Defaults(t *testing.T) {
	g := NewMockGenerator()
	ctx := context.Background()

	titles, err := g.PlanSubtopics(ctx, ai.PlanRequest{TopicTitle: "Graphs"})
	require.NoError(t, err)
	assert.Len(t, titles, ai.DefaultSubtopicCount)
	assert.Equal(t, "Graphs part 1", titles[0])

	draft, err := g.GenerateSubtopic(ctx, ai.SubtopicRequest{SubtopicTitle: "Trees", IncludeQuiz: true, QuizQuestions: 2})
	require.NoError(t, err)
	assert.Contains(t, draft.Content, "Trees")
	require.Len(t, draft.Quiz, 2)
	assert.NoError(t, core.ValidateQuiz(draft.Quiz))

	require.Len(t, g.Requests(), 1)
	assert.Equal(t, "Trees", g.Requests()[0].SubtopicTitle)
	assert.Equal(t, 2, g.CallCount())
}

func TestLessonContent_CoversEveryChunkType(t *testing.T) {
	chunks := chunking.Chunk(LessonContent("Graph traversal"), "Graph traversal")

	var types []core.ChunkType
	for _, c := range chunks {
		types = append(types, c.Type)
	}
	assert.Equal(t, core.ChunkTypes, types)
}
