package reembed

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/syllabus/ai/mock"
	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
		Workers:        2,
	}
}

func TestNewReembedder_Requirements(t *testing.T) {
	repos := setupTestDB(t)
	client := newClient(t, mock.NewMockEmbedder())

	_, err := NewReembedder(nil, repos.Subtopics, repos.Chunks, client, nil, nil)
	assert.ErrorIs(t, err, ErrSessionRepositoryRequired)
	_, err = NewReembedder(repos.Sessions, nil, repos.Chunks, client, nil, nil)
	assert.ErrorIs(t, err, ErrSubtopicRepositoryRequired)
	_, err = NewReembedder(repos.Sessions, repos.Subtopics, nil, client, nil, nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	_, err = NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbeddingClientRequired)

	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks, client, nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.config.Workers, 1)
}

func TestReembedder_Run(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	first := seedTopic(t, repos, "Go", 4, 3)
	second := seedTopic(t, repos, "SQL", 3)

	var buf bytes.Buffer
	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks,
		newClient(t, unnormalizedEmbedder()), testConfig(), &buf)
	require.NoError(t, err)
	require.NoError(t, r.Run(ctx))

	for _, topic := range []*core.Topic{first, second} {
		subtopics, err := repos.Subtopics.ListSubtopics(ctx, topic.Id)
		require.NoError(t, err)
		for _, st := range subtopics {
			chunks, err := repos.Chunks.GetChunks(ctx, st.Id)
			require.NoError(t, err)
			for _, chunk := range chunks {
				require.Len(t, chunk.Vector, 3, "chunk %d of subtopic %d", chunk.Position, st.Id)
				var magnitude float32
				for _, v := range chunk.Vector {
					magnitude += v * v
				}
				assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
			}
		}
	}

	output := buf.String()
	assert.Contains(t, output, "10 chunks across 3 subtopics")
	assert.Contains(t, output, "10/10", "should show completion")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repos := setupTestDB(t)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks,
		newClient(t, embedder), DefaultConfig(), &buf)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, buf.String(), "0 chunks", "should report zero chunks")
	assert.Zero(t, embedder.CallCount())
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repos := setupTestDB(t)
	seedTopic(t, repos, "Go", 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		result := make([][]float32, len(texts))
		for i := range result {
			result[i] = []float32{1.0, 0.0, 0.0}
		}
		return result, nil
	}

	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Workers = 1
	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks, newClient(t, embedder), cfg, &buf)
	require.NoError(t, err)

	err = r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, buf.String(), "Reembedding complete")
}

func TestReembedder_EmbeddingError(t *testing.T) {
	repos := setupTestDB(t)
	seedTopic(t, repos, "Go", 1, 1, 1)

	persistent := errors.New("persistent error")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, persistent
	}

	cfg := testConfig()
	cfg.MaxRetries = 2
	var buf bytes.Buffer
	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks, newClient(t, embedder), cfg, &buf)
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, persistent)
	assert.Contains(t, err.Error(), "persistent error")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.BatchSize, 0, "batch size should be positive")
	assert.Greater(t, config.ReportInterval, 0, "report interval should be positive")
	assert.Greater(t, config.MaxRetries, 0, "max retries should be positive")
	assert.Greater(t, config.RetryDelay, time.Duration(0), "retry delay should be positive")
	assert.GreaterOrEqual(t, config.Workers, 1, "workers should be positive")
}

func TestReembedder_ProgressTracking(t *testing.T) {
	repos := setupTestDB(t)
	seedTopic(t, repos, "Go", 25)

	var buf bytes.Buffer
	cfg := testConfig()
	cfg.BatchSize = 5
	cfg.ReportInterval = 10
	r, err := NewReembedder(repos.Sessions, repos.Subtopics, repos.Chunks,
		newClient(t, unnormalizedEmbedder()), cfg, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	output := buf.String()
	assert.Contains(t, output, "Progress:", "should show progress")
	assert.Contains(t, output, "25/25", "should show final count")
	assert.Contains(t, output, "chunks/s")
}
