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
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/embedding"
	"github.com/poiesic/syllabus/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Workers is the number of subtopics reembedded concurrently
	Workers int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Workers:        max(runtime.NumCPU()/2, 1),
	}
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reembedder orchestrates the reembedding of every stored content chunk.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	sessions storage.SessionRepository,
	subtopics storage.SubtopicRepository,
	chunks storage.ChunkRepository,
	client *embedding.Client,
	config *Config,
	progress io.Writer,
	opts ...Option,
) (*Reembedder, error) {
	switch {
	case sessions == nil:
		return nil, ErrSessionRepositoryRequired
	case subtopics == nil:
		return nil, ErrSubtopicRepositoryRequired
	case chunks == nil:
		return nil, ErrChunkRepositoryRequired
	case client == nil:
		return nil, ErrEmbeddingClientRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(chunks, client, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(sessions, subtopics, chunks, config.BatchSize),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembed")
	return r, nil
}

// Run executes the reembedding operation.
// Every chunk of every subtopic is reembedded with the configured client.
// Subtopics are spread across a worker pool; the first failure cancels the
// remaining work and is returned. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	work, totalChunks, err := r.iterator.Collect(ctx)
	if err != nil {
		return err
	}

	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks across %d subtopics (batch size: %d, workers: %d)\n",
		totalChunks, len(work), r.iterator.BatchSize(), r.config.Workers)

	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval)
	tracker.Start()

	pool, err := ants.NewPool(r.config.Workers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, unit := range work {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := r.reembedSubtopic(ctx, unit, tracker); err != nil {
				fail(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit subtopic %d: %w", unit.Subtopic.Id, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		totalChunks, elapsed.Round(time.Second), float64(totalChunks)/elapsed.Seconds())
	r.logger.Info("reembedding complete", "chunks", totalChunks, "subtopics", len(work), "elapsed", elapsed)

	return nil
}

func (r *Reembedder) reembedSubtopic(ctx context.Context, unit SubtopicChunks, tracker *ProgressTracker) error {
	return r.iterator.ForEach(ctx, unit, func(chunks []*core.ContentChunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			r.logger.Error("failed to reembed subtopic", "subtopic_id", unit.Subtopic.Id, "err", err)
			return fmt.Errorf("failed to process batch of subtopic %d: %w", unit.Subtopic.Id, err)
		}
		tracker.Increment(len(chunks))
		return nil
	})
}
