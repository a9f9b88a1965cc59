// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

const (
	// DefaultBatchSize is the default number of chunks written per update
	DefaultBatchSize = 100
)

// SubtopicChunks is one unit of reembedding work.
type SubtopicChunks struct {
	Subtopic *core.Subtopic
	Chunks   []*core.ContentChunk
}

// ChunkIterator walks the chunks of every subtopic of every topic that has a session.
type ChunkIterator struct {
	sessions  storage.SessionRepository
	subtopics storage.SubtopicRepository
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks handed to fn at a time (must be > 0)
func NewChunkIterator(sessions storage.SessionRepository, subtopics storage.SubtopicRepository, chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		sessions:  sessions,
		subtopics: subtopics,
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// BatchSize returns the number of chunks per batch.
func (it *ChunkIterator) BatchSize() int {
	return it.batchSize
}

// Collect loads every subtopic that has chunks, in topic then order sequence,
// and returns them with the total number of chunks.
func (it *ChunkIterator) Collect(ctx context.Context) ([]SubtopicChunks, int, error) {
	sessions, err := it.sessions.ListSessions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	seen := make(map[core.ID]bool)
	var work []SubtopicChunks
	total := 0
	for _, session := range sessions {
		if seen[session.TopicId] {
			continue
		}
		seen[session.TopicId] = true

		// Check context between topics
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		subtopics, err := it.subtopics.ListSubtopics(ctx, session.TopicId)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, 0, fmt.Errorf("failed to list subtopics of topic %d: %w", session.TopicId, err)
		}
		for _, st := range subtopics {
			chunks, err := it.chunks.GetChunks(ctx, st.Id)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to load chunks of subtopic %d: %w", st.Id, err)
			}
			if len(chunks) == 0 {
				continue
			}
			work = append(work, SubtopicChunks{Subtopic: st, Chunks: chunks})
			total += len(chunks)
		}
	}
	return work, total, nil
}

// ForEach calls fn with batches of at most batchSize chunks of one subtopic.
// Iteration stops on the first error from fn. Context cancellation is checked
// between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, unit SubtopicChunks, fn func([]*core.ContentChunk) error) error {
	for i := 0; i < len(unit.Chunks); i += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := min(i+it.batchSize, len(unit.Chunks))
		if err := fn(unit.Chunks[i:end]); err != nil {
			return err
		}
	}
	return nil
}
