package storage

import (
	"context"
	"time"

	"github.com/poiesic/syllabus/core"
)

// Repository is the common lifecycle contract for every repository.
type Repository interface {
	// Close releases resources held by the repository (ID sequences).
	// It does not close the shared backend.
	Close() error
}

// TopicRepository provides operations for managing course topics.
type TopicRepository interface {
	Repository
	// AddTopic stores a new topic, assigning an ID from the topic sequence.
	AddTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error)

	// UpdateTopic overwrites an existing topic.
	// Returns ErrNotFound if the topic doesn't exist.
	UpdateTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error)

	// GetTopic retrieves a topic by ID.
	// Returns ErrNotFound if the topic doesn't exist.
	GetTopic(ctx context.Context, id core.ID) (*core.Topic, error)
}

// SessionRepository provides operations for managing generation sessions.
type SessionRepository interface {
	Repository
	// AddSession stores a new session and indexes it by thread ID.
	// Returns ErrDuplicateKey if a session already owns the thread.
	AddSession(ctx context.Context, session *core.Session) (*core.Session, error)

	// UpdateSession overwrites an existing session.
	// Returns ErrNotFound if the session doesn't exist.
	UpdateSession(ctx context.Context, session *core.Session) (*core.Session, error)

	// GetSession retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id core.ID) (*core.Session, error)

	// GetSessionByThread retrieves the session that owns a thread.
	// Returns ErrNotFound if no session owns the thread.
	GetSessionByThread(ctx context.Context, threadID string) (*core.Session, error)

	// ListSessions returns every session ordered by ID.
	ListSessions(ctx context.Context) ([]*core.Session, error)
}

// SubtopicRepository provides operations for managing generated subtopics.
type SubtopicRepository interface {
	Repository
	// UpsertSubtopic inserts or updates the subtopic at (TopicId, Order) in a
	// single transaction, so at most one row exists per order. An existing
	// row keeps its ID, InsertedAt and publication state.
	UpsertSubtopic(ctx context.Context, subtopic *core.Subtopic) (*core.Subtopic, error)

	// UpsertDraft is UpsertSubtopic for freshly generated content: an existing
	// row keeps its ID and InsertedAt but is reset to unpublished.
	UpsertDraft(ctx context.Context, subtopic *core.Subtopic) (*core.Subtopic, error)

	// GetSubtopic retrieves a subtopic by ID.
	// Returns ErrNotFound if the subtopic doesn't exist.
	GetSubtopic(ctx context.Context, id core.ID) (*core.Subtopic, error)

	// GetSubtopicByOrder retrieves the subtopic at a 1-based order.
	// Returns ErrNotFound if no subtopic is stored at that order.
	GetSubtopicByOrder(ctx context.Context, topicID core.ID, order int) (*core.Subtopic, error)

	// ListSubtopics returns a topic's subtopics ordered by Order.
	ListSubtopics(ctx context.Context, topicID core.ID) ([]*core.Subtopic, error)

	// PublishSubtopic marks the subtopic at order as published at the given time.
	// Returns ErrNotFound if no subtopic is stored at that order.
	PublishSubtopic(ctx context.Context, topicID core.ID, order int, at time.Time) (*core.Subtopic, error)
}

// ChunkRepository provides operations for managing embedded content chunks.
type ChunkRepository interface {
	Repository
	// AddChunks stores chunks for a subtopic in addition to any existing ones.
	AddChunks(ctx context.Context, subtopicID core.ID, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error)

	// ReplaceChunks deletes every chunk of the subtopic and inserts the new set
	// in one transaction.
	ReplaceChunks(ctx context.Context, subtopicID core.ID, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error)

	// DeleteChunks removes every chunk of a subtopic and returns how many were removed.
	DeleteChunks(ctx context.Context, subtopicID core.ID) (int, error)

	// GetChunks returns a subtopic's chunks in position order.
	GetChunks(ctx context.Context, subtopicID core.ID) ([]*core.ContentChunk, error)

	// UpdateChunkVectors overwrites the vectors of existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, chunks ...*core.ContentChunk) error

	// FindSimilarChunks ranks chunks of the topic's published subtopics with
	// Order <= maxOrder by cosine similarity to vector, highest first.
	FindSimilarChunks(ctx context.Context, topicID core.ID, vector []float32, maxOrder int, limit int) ([]*core.RelevantChunk, error)

	// CountChunksByType counts the chunks of every subtopic of a topic per type.
	CountChunksByType(ctx context.Context, topicID core.ID) (map[core.ChunkType]int, error)
}

// CheckpointRepository persists workflow checkpoints per thread.
// Checkpoints are append-only; the most recent one is the current state.
type CheckpointRepository interface {
	Repository
	// PutCheckpoint appends a checkpoint. CheckpointId must be set.
	// CreatedAt is set if it is zero. Putting an ID the thread already holds
	// replaces that checkpoint without adding a row.
	PutCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) (*core.Checkpoint, error)

	// GetLatestCheckpoint returns the most recent checkpoint of a thread.
	// Returns nil, nil if the thread has no checkpoints.
	GetLatestCheckpoint(ctx context.Context, threadID string) (*core.Checkpoint, error)

	// ListCheckpoints returns a thread's checkpoints newest first. When before
	// is non-empty only checkpoints older than that checkpoint are returned.
	// A limit <= 0 returns every checkpoint.
	ListCheckpoints(ctx context.Context, threadID, before string, limit int) ([]*core.Checkpoint, error)

	// DeleteCheckpoints removes every checkpoint of a thread.
	// Reports whether anything was deleted.
	DeleteCheckpoints(ctx context.Context, threadID string) (bool, error)
}

// MessageRepository persists conversation messages per session.
type MessageRepository interface {
	Repository
	// AddMessages stores messages, assigning IDs from the message sequence.
	AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)

	// ListMessages returns a session's messages oldest first.
	ListMessages(ctx context.Context, sessionID core.ID) ([]*core.Message, error)

	// DeleteMessages removes messages of a session by ID.
	// Missing IDs are ignored.
	DeleteMessages(ctx context.Context, sessionID core.ID, ids ...core.ID) error
}
