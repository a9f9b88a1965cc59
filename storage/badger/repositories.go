package badger

import (
	"errors"
)

// Repositories bundles every BadgerDB repository over one shared backend.
type Repositories struct {
	Backend     *Backend
	Topics      *TopicRepository
	Sessions    *SessionRepository
	Subtopics   *SubtopicRepository
	Chunks      *ChunkRepository
	Checkpoints *CheckpointRepository
	Messages    *MessageRepository
}

// NewRepositories creates every repository on top of backend.
// On failure the repositories created so far are closed; the backend is not.
func NewRepositories(backend *Backend) (*Repositories, error) {
	repos := &Repositories{Backend: backend, Chunks: NewChunkRepository(backend)}

	var err error
	if repos.Topics, err = NewTopicRepository(backend); err != nil {
		return nil, errors.Join(err, repos.closeRepos())
	}
	if repos.Sessions, err = NewSessionRepository(backend); err != nil {
		return nil, errors.Join(err, repos.closeRepos())
	}
	if repos.Subtopics, err = NewSubtopicRepository(backend); err != nil {
		return nil, errors.Join(err, repos.closeRepos())
	}
	if repos.Checkpoints, err = NewCheckpointRepository(backend); err != nil {
		return nil, errors.Join(err, repos.closeRepos())
	}
	if repos.Messages, err = NewMessageRepository(backend); err != nil {
		return nil, errors.Join(err, repos.closeRepos())
	}
	return repos, nil
}

// closeRepos releases the sequences of every repository created so far.
func (r *Repositories) closeRepos() error {
	var errs []error
	if r.Messages != nil {
		errs = append(errs, r.Messages.Close())
	}
	if r.Checkpoints != nil {
		errs = append(errs, r.Checkpoints.Close())
	}
	if r.Subtopics != nil {
		errs = append(errs, r.Subtopics.Close())
	}
	if r.Sessions != nil {
		errs = append(errs, r.Sessions.Close())
	}
	if r.Topics != nil {
		errs = append(errs, r.Topics.Close())
	}
	if r.Chunks != nil {
		errs = append(errs, r.Chunks.Close())
	}
	return errors.Join(errs...)
}

// Close releases every repository and then closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(r.closeRepos(), r.Backend.Close())
}
