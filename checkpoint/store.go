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


// Package checkpoint stores workflow state snapshots per thread.
//
// The Store wraps a storage.CheckpointRepository. It encodes GenerationState
// values, assigns time-ordered checkpoint ids, retries transient storage
// failures with bounded backoff and translates storage errors into the core
// error taxonomy. Checkpoints are append-only; the newest one is the current
// state of a thread. Deleting a thread's checkpoints cancels it.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/metrics"
	"github.com/poiesic/syllabus/retry"
	"github.com/poiesic/syllabus/storage"
	badgerstore "github.com/poiesic/syllabus/storage/badger"
)

// Snapshot is a decoded checkpoint.
type Snapshot struct {
	ThreadID     string
	CheckpointID string
	State        core.GenerationState
	Metadata     map[string]string
	CreatedAt    time.Time
}

// Store is the retrying checkpoint facade used by the workflow engine.
type Store struct {
	repo      storage.CheckpointRepository
	policy    retry.Policy
	retryable func(error) bool
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy replaces the default backoff policy. The policy's
// Retryable field is ignored; only transient errors are retried.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Store) {
		s.policy.MaxAttempts = p.MaxAttempts
		s.policy.BaseDelay = p.BaseDelay
	}
}

// WithRetryableFunc sets the predicate that marks repository errors as
// transient. The default recognizes BadgerDB write conflicts.
func WithRetryableFunc(fn func(error) bool) Option {
	return func(s *Store) {
		if fn != nil {
			s.retryable = fn
		}
	}
}

// WithMetrics records checkpoint writes on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Store) {
		s.metrics = collector
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over repo.
func NewStore(repo storage.CheckpointRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	s := &Store{
		repo:      repo,
		policy:    retry.Default(),
		retryable: badgerstore.IsRetryable,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy.Retryable = core.IsTransient
	s.logger = s.logger.With("component", "checkpoint-store")
	return s, nil
}

// NewID returns a checkpoint id of the form "{unix millis}_{8 hex chars}".
// Ids created in different milliseconds sort by creation time.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
}

// Put appends state as the newest checkpoint of its thread and returns the
// checkpoint id. An empty checkpointID is replaced by NewID. Repeating a put
// with the same checkpointID is safe, so a retried write never duplicates.
func (s *Store) Put(ctx context.Context, checkpointID string, state core.GenerationState, metadata map[string]string) (string, error) {
	const op = "put checkpoint"
	if state.ThreadId == "" {
		return "", core.NewValidationError(op, ErrThreadIDRequired)
	}
	if checkpointID == "" {
		checkpointID = NewID()
	}
	blob := storage.MarshalState(state)

	err := s.do(ctx, op, func() error {
		_, err := s.repo.PutCheckpoint(ctx, &core.Checkpoint{
			ThreadId:     state.ThreadId,
			CheckpointId: checkpointID,
			State:        blob,
			Metadata:     maps.Clone(metadata),
		})
		return s.classify(op, state.ThreadId, err)
	})
	s.metrics.RecordCheckpointWrite(err == nil)
	if err != nil {
		s.logger.Error("failed to write checkpoint", "thread", state.ThreadId, "checkpoint", checkpointID, "err", err)
		return "", err
	}
	s.logger.Debug("checkpoint written", "thread", state.ThreadId, "checkpoint", checkpointID, "action", state.Action)
	return checkpointID, nil
}

// Latest returns the newest checkpoint of a thread, or nil if it has none.
func (s *Store) Latest(ctx context.Context, threadID string) (*Snapshot, error) {
	const op = "get checkpoint"
	if threadID == "" {
		return nil, core.NewValidationError(op, ErrThreadIDRequired)
	}
	var cp *core.Checkpoint
	err := s.do(ctx, op, func() error {
		var err error
		cp, err = s.repo.GetLatestCheckpoint(ctx, threadID)
		return s.classify(op, threadID, err)
	})
	if err != nil || cp == nil {
		return nil, err
	}
	return decode(cp)
}

// List returns a thread's checkpoints newest first. When before is set only
// older checkpoints are returned; an unknown before id is a NotFoundError.
// A limit <= 0 returns every checkpoint.
func (s *Store) List(ctx context.Context, threadID, before string, limit int) ([]*Snapshot, error) {
	const op = "list checkpoints"
	if threadID == "" {
		return nil, core.NewValidationError(op, ErrThreadIDRequired)
	}
	var cps []*core.Checkpoint
	err := s.do(ctx, op, func() error {
		var err error
		cps, err = s.repo.ListCheckpoints(ctx, threadID, before, limit)
		return s.classify(op, before, err)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Snapshot, 0, len(cps))
	for _, cp := range cps {
		snap, err := decode(cp)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Delete removes every checkpoint of a thread and reports whether any existed.
func (s *Store) Delete(ctx context.Context, threadID string) (bool, error) {
	const op = "delete checkpoints"
	if threadID == "" {
		return false, core.NewValidationError(op, ErrThreadIDRequired)
	}
	var deleted bool
	err := s.do(ctx, op, func() error {
		var err error
		deleted, err = s.repo.DeleteCheckpoints(ctx, threadID)
		return s.classify(op, threadID, err)
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("checkpoints deleted", "thread", threadID)
	}
	return deleted, nil
}

func (s *Store) do(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	return retry.Do(ctx, s.policy, func() error {
		attempt++
		err := fn()
		if err != nil && core.IsTransient(err) && attempt < s.policy.MaxAttempts {
			s.logger.Warn("transient checkpoint failure, retrying", "op", op, "attempt", attempt, "err", err)
		}
		return err
	})
}

// classify maps repository errors onto the core error taxonomy.
func (s *Store) classify(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case s.retryable(err):
		return core.NewTransientError(op, err)
	case errors.Is(err, storage.ErrNotFound):
		return core.NewNotFoundError(op, "checkpoint", key, err)
	case errors.Is(err, storage.ErrInvalidQuery), errors.Is(err, storage.ErrDuplicateKey):
		return core.NewValidationError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func decode(cp *core.Checkpoint) (*Snapshot, error) {
	state, err := storage.UnmarshalState(cp.State)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", cp.CheckpointId, err)
	}
	return &Snapshot{
		ThreadID:     cp.ThreadId,
		CheckpointID: cp.CheckpointId,
		State:        state,
		Metadata:     cp.Metadata,
		CreatedAt:    cp.CreatedAt,
	}, nil
}
