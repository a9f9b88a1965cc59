package badger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) (*SessionRepository, error) {
	idSeq, err := backend.GetSequence(sessionIDSeq)
	if err != nil {
		return nil, err
	}
	return &SessionRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *SessionRepository) Close() error {
	return r.idSeq.Release()
}

// AddSession stores a new session and its thread index entry.
func (r *SessionRepository) AddSession(ctx context.Context, session *core.Session) (*core.Session, error) {
	if session.ThreadId == "" {
		return nil, fmt.Errorf("%w: thread id is required", storage.ErrInvalidQuery)
	}
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		threadKey := makeSessionThreadKey(session.ThreadId)
		if _, err := tx.Get(threadKey); err == nil {
			return fmt.Errorf("%w: thread %s", storage.ErrDuplicateKey, session.ThreadId)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		session.Id = core.ID(id)
		session.InsertedAt = now()
		session.UpdatedAt = session.InsertedAt

		if err := tx.Set(makeSessionKey(session.Id), storage.MarshalSession(session)); err != nil {
			return err
		}
		return tx.Set(threadKey, storage.MarshalID(session.Id))
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession overwrites an existing session. The thread ID is immutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session *core.Session) (*core.Session, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		key := makeSessionKey(session.Id)
		old, err := readValue(tx, key, storage.UnmarshalSession)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		session.ThreadId = old.ThreadId
		session.InsertedAt = old.InsertedAt
		session.UpdatedAt = now()
		return tx.Set(key, storage.MarshalSession(session))
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id core.ID) (*core.Session, error) {
	var session *core.Session
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		session, err = readValue(tx, makeSessionKey(id), storage.UnmarshalSession)
		if err != nil {
			return err
		}
		if session == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return session, err
}

// GetSessionByThread retrieves the session that owns a thread.
func (r *SessionRepository) GetSessionByThread(ctx context.Context, threadID string) (*core.Session, error) {
	var session *core.Session
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeSessionThreadKey(threadID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		var id core.ID
		err = item.Value(func(val []byte) error {
			var unmarshalErr error
			id, unmarshalErr = storage.UnmarshalID(val)
			return unmarshalErr
		})
		if err != nil {
			return err
		}
		session, err = readValue(tx, makeSessionKey(id), storage.UnmarshalSession)
		if err != nil {
			return err
		}
		if session == nil {
			return storage.ErrNotFound
		}
		return nil
	})
	return session, err
}

// ListSessions returns every session ordered by ID.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]*core.Session, error) {
	var sessions []*core.Session
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		sessions, err = scanPrefix(tx, []byte(sessionPrefix+":"), storage.UnmarshalSession)
		return err
	})
	if err != nil {
		return nil, err
	}
	// Primary keys are decimal, so key order is not numeric order
	slices.SortFunc(sessions, func(a, b *core.Session) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return sessions, nil
}
