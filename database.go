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


// Package syllabus wires the course generation workflow together: BadgerDB
// storage, the model provider, retrieval, conversation, checkpoints and the
// workflow engine, all built from one config.Config.
package syllabus

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/ai/openai"
	"github.com/poiesic/syllabus/checkpoint"
	"github.com/poiesic/syllabus/config"
	"github.com/poiesic/syllabus/conversation"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/embedding"
	"github.com/poiesic/syllabus/metrics"
	"github.com/poiesic/syllabus/reembed"
	"github.com/poiesic/syllabus/retrieval"
	"github.com/poiesic/syllabus/retry"
	"github.com/poiesic/syllabus/storage"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/poiesic/syllabus/workflow"
)

type Database struct {
	repos        *badger.Repositories
	provider     ai.AIProvider
	metrics      *metrics.Collector
	embedder     *embedding.Client
	retriever    *retrieval.Retriever
	conversation *conversation.Manager
	checkpoints  *checkpoint.Store
	engine       *workflow.Engine
	config       *config.Config
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// WithProvider uses provider instead of an OpenAI-compatible one built from
// the configuration. The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory and ignores database.path.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the collector handed to every component.
func WithMetrics(collector *metrics.Collector) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = collector
	}
}

// NewDatabase opens storage and builds the workflow from cfg.
// A nil cfg uses config.Default().
func NewDatabase(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewCollector(options.logger)
	}
	logger := options.logger

	// Open backend
	backend, err := badger.OpenBackend(cfg.Database.Path, options.inMemory)
	if err != nil {
		return nil, err
	}
	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	db := &Database{
		repos:    repos,
		metrics:  options.metrics,
		config:   cfg,
		logger:   logger,
		provider: options.provider,
	}

	// Create AI provider with configured settings
	if db.provider == nil {
		db.provider, err = openai.NewProvider(cfg.AIConfig(), db.metrics)
		if err != nil {
			repos.Close()
			return nil, core.NewConfigurationError("new provider", err)
		}
	}

	if err := db.build(logger); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return db, nil
}

func (db *Database) build(logger *slog.Logger) error {
	cfg := db.config
	var err error

	db.embedder, err = embedding.NewClient(db.provider.Embedder(),
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
		embedding.WithModelName(cfg.AI.EmbeddingModel),
		embedding.WithMetrics(db.metrics),
		embedding.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	db.retriever, err = retrieval.NewRetriever(db.repos.Subtopics, db.repos.Chunks, db.embedder,
		retrieval.WithLogger(logger),
		retrieval.WithMetrics(db.metrics),
	)
	if err != nil {
		return err
	}

	db.conversation, err = conversation.NewManager(db.repos.Sessions, db.repos.Messages,
		conversation.WithTokenCounter(conversation.NewTiktokenCounter(cfg.Conversation.Encoding, logger)),
		conversation.WithTokenBudget(cfg.Conversation.TokenBudget),
		conversation.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	db.checkpoints, err = checkpoint.NewStore(db.repos.Checkpoints,
		checkpoint.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.Checkpoint.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay(),
		}),
		checkpoint.WithMetrics(db.metrics),
		checkpoint.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	quiz := 0
	if cfg.Workflow.IncludeQuiz {
		quiz = cfg.Workflow.QuizQuestions
	}
	db.engine, err = workflow.NewEngine(workflow.Dependencies{
		Topics:       db.repos.Topics,
		Sessions:     db.repos.Sessions,
		Subtopics:    db.repos.Subtopics,
		Checkpoints:  db.checkpoints,
		Retriever:    db.retriever,
		Conversation: db.conversation,
		Generator:    db.provider.Generator(),
	},
		workflow.WithLogger(logger),
		workflow.WithMetrics(db.metrics),
		workflow.WithSubtopicCount(cfg.Workflow.SubtopicCount),
		workflow.WithQuiz(quiz),
		workflow.WithRetrievalLimit(cfg.Retrieval.Limit),
		workflow.WithMaxSteps(cfg.Workflow.MaxSteps),
	)
	return err
}

func (db *Database) Close() error {
	var errs []error
	// Close AI provider first
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	// Close repositories and backend
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) Engine() *workflow.Engine {
	return db.engine
}

func (db *Database) Retriever() *retrieval.Retriever {
	return db.retriever
}

func (db *Database) Checkpoints() *checkpoint.Store {
	return db.checkpoints
}

func (db *Database) Conversation() *conversation.Manager {
	return db.conversation
}

func (db *Database) Metrics() *metrics.Collector {
	return db.metrics
}

func (db *Database) TopicRepository() storage.TopicRepository {
	return db.repos.Topics
}

func (db *Database) SessionRepository() storage.SessionRepository {
	return db.repos.Sessions
}

func (db *Database) SubtopicRepository() storage.SubtopicRepository {
	return db.repos.Subtopics
}

// Coverage reports the chunk type balance of the topic behind a thread.
func (db *Database) Coverage(ctx context.Context, threadID string) (*retrieval.Coverage, error) {
	session, err := db.repos.Sessions.GetSessionByThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.NewNotFoundError("coverage", "session", threadID, err)
		}
		return nil, err
	}
	return db.retriever.Coverage(ctx, session.TopicId)
}

// NewReembedder creates a reembedder over every stored chunk using the
// configured embedding model. A nil cfg uses reembed.DefaultConfig().
func (db *Database) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repos.Sessions, db.repos.Subtopics, db.repos.Chunks, db.embedder,
		cfg, progress, reembed.WithLogger(db.logger))
}
