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
	"fmt"
	"time"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/embedding"
	"github.com/poiesic/syllabus/retry"
	"github.com/poiesic/syllabus/storage"
)

// BatchProcessor re-embeds batches of chunks and writes the vectors back.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	client         *embedding.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, client *embedding.Client, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &BatchProcessor{
		repo:           repo,
		client:         client,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the chunks' content and updates their vectors.
// Vectors are normalized after embedding so cosine ranking stays consistent.
// The chunks passed in are modified.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	// A maintenance run can afford to retry model failures, unlike an invocation.
	var vectors [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.client.Embed(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	for i := range chunks {
		chunks[i].Vector = core.NormalizeVector(vectors[i])
	}

	if err := bp.repo.UpdateChunkVectors(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
