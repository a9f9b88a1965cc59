package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.Repositories {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seedTopic stores a topic with one session and the given number of chunks
// per subtopic. Chunks carry a stale, unnormalized vector.
func seedTopic(t *testing.T, repos *badger.Repositories, title string, chunksPerSubtopic ...int) *core.Topic {
	t.Helper()
	ctx := context.Background()

	titles := make([]string, len(chunksPerSubtopic))
	for i := range titles {
		titles[i] = fmt.Sprintf("%s part %d", title, i+1)
	}
	topic, err := repos.Topics.AddTopic(ctx, &core.Topic{Title: title, Level: "beginner", SubtopicTitles: titles})
	require.NoError(t, err)
	_, err = repos.Sessions.AddSession(ctx, &core.Session{
		TopicId:  topic.Id,
		ThreadId: fmt.Sprintf("thread-%d", topic.Id),
		Status:   core.SessionStatusGenerating,
	})
	require.NoError(t, err)

	for i, n := range chunksPerSubtopic {
		st, err := repos.Subtopics.UpsertSubtopic(ctx, &core.Subtopic{
			TopicId: topic.Id,
			Order:   i + 1,
			Title:   titles[i],
			Content: "body",
		})
		require.NoError(t, err)

		chunks := make([]*core.ContentChunk, n)
		for j := range chunks {
			chunks[j] = &core.ContentChunk{
				Type:    core.ChunkTypeConcept,
				Content: fmt.Sprintf("%s chunk %d", titles[i], j),
				Vector:  []float32{5, 0, 0},
			}
		}
		if n > 0 {
			_, err = repos.Chunks.AddChunks(ctx, st.Id, chunks...)
			require.NoError(t, err)
		}
	}
	return topic
}

func TestChunkIterator_Collect(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	seedTopic(t, repos, "Go", 3, 0, 2)
	seedTopic(t, repos, "SQL", 4)

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 2)
	work, total, err := it.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, 9, total)
	require.Len(t, work, 3, "subtopics without chunks are skipped")
	assert.Equal(t, "Go part 1", work[0].Subtopic.Title)
	assert.Equal(t, "Go part 3", work[1].Subtopic.Title)
	assert.Equal(t, "SQL part 1", work[2].Subtopic.Title)
}

func TestChunkIterator_SharedTopicVisitedOnce(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	topic := seedTopic(t, repos, "Go", 2)
	_, err := repos.Sessions.AddSession(ctx, &core.Session{
		TopicId:  topic.Id,
		ThreadId: "second-thread",
		Status:   core.SessionStatusPlanning,
	})
	require.NoError(t, err)

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 10)
	work, total, err := it.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, work, 1)
}

func TestChunkIterator_Empty(t *testing.T) {
	repos := setupTestDB(t)

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 10)
	work, total, err := it.Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, work)
}

func TestChunkIterator_ForEachBatches(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	seedTopic(t, repos, "Go", 5)

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 2)
	work, _, err := it.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, work, 1)

	var sizes []int
	err = it.ForEach(ctx, work[0], func(chunks []*core.ContentChunk) error {
		sizes = append(sizes, len(chunks))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestChunkIterator_ForEachStopsOnError(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	seedTopic(t, repos, "Go", 5)

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 2)
	work, _, err := it.Collect(ctx)
	require.NoError(t, err)

	calls := 0
	boom := fmt.Errorf("boom")
	err = it.ForEach(ctx, work[0], func([]*core.ContentChunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCancelled(t *testing.T) {
	repos := setupTestDB(t)
	seedTopic(t, repos, "Go", 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 1)
	_, _, err := it.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	repos := setupTestDB(t)
	it := NewChunkIterator(repos.Sessions, repos.Subtopics, repos.Chunks, 0)
	assert.Equal(t, DefaultBatchSize, it.BatchSize())
}
