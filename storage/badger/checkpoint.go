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


package badger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
//
// Checkpoints of a thread live under one key prefix, ordered by creation
// time and a tie-breaking sequence number. A secondary index maps checkpoint
// IDs to primary keys.
type CheckpointRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) (*CheckpointRepository, error) {
	seq, err := backend.GetSequence(checkpointSeq)
	if err != nil {
		return nil, err
	}
	return &CheckpointRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the ordering sequence.
func (r *CheckpointRepository) Close() error {
	return r.seq.Release()
}

// PutCheckpoint appends a checkpoint to its thread. Writing an ID the thread
// already holds replaces that checkpoint in place: it keeps its CreatedAt and
// its position in the history.
func (r *CheckpointRepository) PutCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) (*core.Checkpoint, error) {
	if checkpoint.ThreadId == "" || checkpoint.CheckpointId == "" {
		return nil, fmt.Errorf("%w: thread id and checkpoint id are required", storage.ErrInvalidQuery)
	}
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		idKey := makeCheckpointIDKey(checkpoint.ThreadId, checkpoint.CheckpointId)
		item, err := tx.Get(idKey)
		switch {
		case err == nil:
			return r.overwrite(tx, item, checkpoint)
		case err != badger.ErrKeyNotFound:
			return err
		}

		seq, err := nextID(r.seq)
		if err != nil {
			return err
		}
		if checkpoint.CreatedAt.IsZero() {
			checkpoint.CreatedAt = now()
		}
		key := makeCheckpointKey(checkpoint.ThreadId, checkpoint.CreatedAt, seq)
		if err := tx.Set(key, storage.MarshalCheckpoint(checkpoint)); err != nil {
			return err
		}
		return tx.Set(idKey, key)
	})
	if err != nil {
		return nil, err
	}
	return checkpoint, nil
}

// overwrite rewrites the checkpoint stored at the primary key idItem points to.
func (r *CheckpointRepository) overwrite(tx *badger.Txn, idItem *badger.Item, checkpoint *core.Checkpoint) error {
	key, err := idItem.ValueCopy(nil)
	if err != nil {
		return err
	}
	item, err := tx.Get(key)
	if err != nil {
		return err
	}
	var old *core.Checkpoint
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		old, unmarshalErr = storage.UnmarshalCheckpoint(val)
		return unmarshalErr
	})
	if err != nil {
		return err
	}
	checkpoint.CreatedAt = old.CreatedAt
	return tx.Set(key, storage.MarshalCheckpoint(checkpoint))
}

// GetLatestCheckpoint returns the most recent checkpoint of a thread.
// Returns nil, nil if the thread has no checkpoints.
func (r *CheckpointRepository) GetLatestCheckpoint(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	checkpoints, err := r.ListCheckpoints(ctx, threadID, "", 1)
	if err != nil || len(checkpoints) == 0 {
		return nil, err
	}
	return checkpoints[0], nil
}

// ListCheckpoints returns a thread's checkpoints newest first.
func (r *CheckpointRepository) ListCheckpoints(ctx context.Context, threadID, before string, limit int) ([]*core.Checkpoint, error) {
	var checkpoints []*core.Checkpoint
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		prefix := makePartialCheckpointKey(threadID)

		// Reverse iteration starts at the largest key <= seek
		seek := append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, 17)...)
		var skip []byte
		if before != "" {
			item, err := tx.Get(makeCheckpointIDKey(threadID, before))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return fmt.Errorf("%w: checkpoint %s", storage.ErrNotFound, before)
				}
				return err
			}
			seek, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
			skip = seek
		}

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			if skip != nil && bytes.Equal(item.Key(), skip) {
				continue
			}
			var cp *core.Checkpoint
			err := item.Value(func(val []byte) error {
				var unmarshalErr error
				cp, unmarshalErr = storage.UnmarshalCheckpoint(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			checkpoints = append(checkpoints, cp)
			if limit > 0 && len(checkpoints) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkpoints, nil
}

// DeleteCheckpoints removes every checkpoint of a thread.
func (r *CheckpointRepository) DeleteCheckpoints(ctx context.Context, threadID string) (bool, error) {
	var deleted bool
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		keys := scanKeys(tx, makePartialCheckpointKey(threadID))
		keys = append(keys, scanKeys(tx, makePartialCheckpointIDKey(threadID))...)
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(keys) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
