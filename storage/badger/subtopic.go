package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// SubtopicRepository implements storage.SubtopicRepository for BadgerDB.
//
// Subtopics are stored under their ID with a secondary (topic, order) index.
// Upserts read the index inside the write transaction, so two concurrent
// upserts of the same order conflict instead of creating two rows.
type SubtopicRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SubtopicRepository = (*SubtopicRepository)(nil)

// NewSubtopicRepository creates a new SubtopicRepository.
func NewSubtopicRepository(backend *Backend) (*SubtopicRepository, error) {
	idSeq, err := backend.GetSequence(subtopicIDSeq)
	if err != nil {
		return nil, err
	}
	return &SubtopicRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *SubtopicRepository) Close() error {
	return r.idSeq.Release()
}

// UpsertSubtopic inserts or updates the subtopic at (TopicId, Order).
// An existing row keeps its publication state.
func (r *SubtopicRepository) UpsertSubtopic(ctx context.Context, subtopic *core.Subtopic) (*core.Subtopic, error) {
	return r.upsert(ctx, subtopic, true)
}

// UpsertDraft inserts or updates the subtopic at (TopicId, Order) and
// leaves it unpublished.
func (r *SubtopicRepository) UpsertDraft(ctx context.Context, subtopic *core.Subtopic) (*core.Subtopic, error) {
	return r.upsert(ctx, subtopic, false)
}

func (r *SubtopicRepository) upsert(ctx context.Context, subtopic *core.Subtopic, keepPublication bool) (*core.Subtopic, error) {
	if err := core.ValidateSubtopic(subtopic); err != nil {
		return nil, err
	}
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		orderKey := makeSubtopicOrderKey(subtopic.TopicId, subtopic.Order)
		old, err := r.readByOrderKey(tx, orderKey)
		if err != nil {
			return err
		}

		ts := now()
		if old != nil {
			subtopic.Id = old.Id
			subtopic.InsertedAt = old.InsertedAt
		}
		switch {
		case old != nil && keepPublication:
			subtopic.IsPublished = old.IsPublished
			subtopic.PublishedAt = old.PublishedAt
		default:
			subtopic.IsPublished = false
			subtopic.PublishedAt = time.Time{}
		}
		if old == nil {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			subtopic.Id = core.ID(id)
			subtopic.InsertedAt = ts
		}
		subtopic.UpdatedAt = ts

		if err := tx.Set(makeSubtopicKey(subtopic.Id), storage.MarshalSubtopic(subtopic)); err != nil {
			return err
		}
		return tx.Set(orderKey, storage.MarshalID(subtopic.Id))
	})
	if err != nil {
		return nil, err
	}
	return subtopic, nil
}

// GetSubtopic retrieves a subtopic by ID.
func (r *SubtopicRepository) GetSubtopic(ctx context.Context, id core.ID) (*core.Subtopic, error) {
	var st *core.Subtopic
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		st, err = readValue(tx, makeSubtopicKey(id), storage.UnmarshalSubtopic)
		if err != nil {
			return err
		}
		if st == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return st, err
}

// GetSubtopicByOrder retrieves the subtopic at a 1-based order.
func (r *SubtopicRepository) GetSubtopicByOrder(ctx context.Context, topicID core.ID, order int) (*core.Subtopic, error) {
	var st *core.Subtopic
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		st, err = r.readByOrderKey(tx, makeSubtopicOrderKey(topicID, order))
		if err != nil {
			return err
		}
		if st == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return st, err
}

// ListSubtopics returns a topic's subtopics ordered by Order.
func (r *SubtopicRepository) ListSubtopics(ctx context.Context, topicID core.ID) ([]*core.Subtopic, error) {
	var subtopics []*core.Subtopic
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		subtopics, err = listSubtopics(tx, topicID)
		return err
	})
	return subtopics, err
}

// PublishSubtopic marks the subtopic at order as published.
func (r *SubtopicRepository) PublishSubtopic(ctx context.Context, topicID core.ID, order int, at time.Time) (*core.Subtopic, error) {
	var st *core.Subtopic
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		var err error
		st, err = r.readByOrderKey(tx, makeSubtopicOrderKey(topicID, order))
		if err != nil {
			return err
		}
		if st == nil {
			return storage.ErrNotFound
		}
		st.IsPublished = true
		st.PublishedAt = at.UTC().Truncate(time.Microsecond)
		st.UpdatedAt = now()
		return tx.Set(makeSubtopicKey(st.Id), storage.MarshalSubtopic(st))
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// readByOrderKey resolves the order index and reads the primary record.
// Returns nil, nil if no subtopic is stored at that order.
func (r *SubtopicRepository) readByOrderKey(tx *badger.Txn, orderKey []byte) (*core.Subtopic, error) {
	id, err := readValue(tx, orderKey, unmarshalIDPtr)
	if err != nil || id == nil {
		return nil, err
	}
	return readValue(tx, makeSubtopicKey(*id), storage.UnmarshalSubtopic)
}

// listSubtopics walks the order index of a topic inside an open transaction.
func listSubtopics(tx *badger.Txn, topicID core.ID) ([]*core.Subtopic, error) {
	ids, err := scanPrefix(tx, makePartialSubtopicOrderKey(topicID), unmarshalIDPtr)
	if err != nil {
		return nil, err
	}
	subtopics := make([]*core.Subtopic, 0, len(ids))
	for _, id := range ids {
		st, err := readValue(tx, makeSubtopicKey(*id), storage.UnmarshalSubtopic)
		if err != nil {
			return nil, err
		}
		if st != nil {
			subtopics = append(subtopics, st)
		}
	}
	return subtopics, nil
}

func unmarshalIDPtr(data []byte) (*core.ID, error) {
	id, err := storage.UnmarshalID(data)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
