package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// TopicRepository implements storage.TopicRepository for BadgerDB.
type TopicRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(backend *Backend) (*TopicRepository, error) {
	idSeq, err := backend.GetSequence(topicIDSeq)
	if err != nil {
		return nil, err
	}
	return &TopicRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *TopicRepository) Close() error {
	return r.idSeq.Release()
}

// AddTopic stores a new topic.
func (r *TopicRepository) AddTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		topic.Id = core.ID(id)
		topic.InsertedAt = now()
		topic.UpdatedAt = topic.InsertedAt
		return tx.Set(makeTopicKey(topic.Id), storage.MarshalTopic(topic))
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// UpdateTopic overwrites an existing topic.
func (r *TopicRepository) UpdateTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		key := makeTopicKey(topic.Id)
		old, err := readValue(tx, key, storage.UnmarshalTopic)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		topic.InsertedAt = old.InsertedAt
		topic.UpdatedAt = now()
		return tx.Set(key, storage.MarshalTopic(topic))
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// GetTopic retrieves a topic by ID.
func (r *TopicRepository) GetTopic(ctx context.Context, id core.ID) (*core.Topic, error) {
	var topic *core.Topic
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		topic, err = readValue(tx, makeTopicKey(id), storage.UnmarshalTopic)
		if err != nil {
			return err
		}
		if topic == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return topic, err
}
