package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
type MessageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (*MessageRepository, error) {
	idSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}
	return &MessageRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *MessageRepository) Close() error {
	return r.idSeq.Release()
}

// AddMessages stores messages. IDs come from a monotonic sequence, so a
// session's messages iterate in insertion order.
func (r *MessageRepository) AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, msg := range messages {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			msg.Id = core.ID(id)
			if msg.InsertedAt.IsZero() {
				msg.InsertedAt = now()
			}
			if err := tx.Set(makeMessageKey(msg.SessionId, msg.Id), storage.MarshalMessage(msg)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListMessages returns a session's messages oldest first.
func (r *MessageRepository) ListMessages(ctx context.Context, sessionID core.ID) ([]*core.Message, error) {
	var messages []*core.Message
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		messages, err = scanPrefix(tx, makePartialMessageKey(sessionID), storage.UnmarshalMessage)
		return err
	})
	return messages, err
}

// DeleteMessages removes messages of a session by ID.
func (r *MessageRepository) DeleteMessages(ctx context.Context, sessionID core.ID, ids ...core.ID) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeMessageKey(sessionID, id)); err != nil {
				return err
			}
		}
		return nil
	})
}
