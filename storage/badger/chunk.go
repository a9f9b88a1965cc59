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

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
//
// Chunks are keyed by (subtopic, position), so a subtopic's chunks are
// contiguous and can be replaced with one prefix delete.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; chunk IDs are content derived and need no sequence.
func (r *ChunkRepository) Close() error {
	return nil
}

// AddChunks stores chunks after any existing chunks of the subtopic.
func (r *ChunkRepository) AddChunks(ctx context.Context, subtopicID core.ID, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		existing := scanKeys(tx, makePartialChunkKey(subtopicID))
		return r.insert(tx, subtopicID, len(existing), chunks)
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// ReplaceChunks deletes the subtopic's chunks and inserts the new set atomically.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, subtopicID core.ID, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error) {
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, key := range scanKeys(tx, makePartialChunkKey(subtopicID)) {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return r.insert(tx, subtopicID, 0, chunks)
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *ChunkRepository) insert(tx *badger.Txn, subtopicID core.ID, offset int, chunks []*core.ContentChunk) error {
	ts := now()
	for i, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		chunk.SubtopicId = subtopicID
		chunk.Position = offset + i
		chunk.Id = core.IDFromContent(fmt.Sprintf("%d:%d:%s:%s", subtopicID, chunk.Position, chunk.Type, chunk.Content))
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = ts
		}
		if err := tx.Set(makeChunkKey(subtopicID, chunk.Position), storage.MarshalChunk(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteChunks removes every chunk of a subtopic.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, subtopicID core.ID) (int, error) {
	var deleted int
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, key := range scanKeys(tx, makePartialChunkKey(subtopicID)) {
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetChunks returns a subtopic's chunks in position order.
func (r *ChunkRepository) GetChunks(ctx context.Context, subtopicID core.ID) ([]*core.ContentChunk, error) {
	var chunks []*core.ContentChunk
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		chunks, err = scanPrefix(tx, makePartialChunkKey(subtopicID), storage.UnmarshalChunk)
		return err
	})
	return chunks, err
}

// UpdateChunkVectors overwrites the vectors of existing chunks.
func (r *ChunkRepository) UpdateChunkVectors(ctx context.Context, chunks ...*core.ContentChunk) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.SubtopicId, chunk.Position)
			stored, err := readValue(tx, key, storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			if stored == nil {
				return fmt.Errorf("%w: chunk %d of subtopic %d", storage.ErrNotFound, chunk.Position, chunk.SubtopicId)
			}
			stored.Vector = chunk.Vector
			if err := tx.Set(key, storage.MarshalChunk(stored)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindSimilarChunks ranks the chunks of published subtopics with
// Order <= maxOrder by cosine similarity to vector.
// Chunks without a vector are skipped.
func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, topicID core.ID, vector []float32, maxOrder int, limit int) ([]*core.RelevantChunk, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	type scored struct {
		hit      *core.RelevantChunk
		position int
	}
	var results []scored

	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		subtopics, err := listSubtopics(tx, topicID)
		if err != nil {
			return err
		}
		for _, st := range subtopics {
			if !st.IsPublished || st.Order > maxOrder {
				continue
			}
			chunks, err := scanPrefix(tx, makePartialChunkKey(st.Id), storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				if len(chunk.Vector) == 0 {
					continue
				}
				results = append(results, scored{
					hit: &core.RelevantChunk{
						Content:       chunk.Content,
						Type:          chunk.Type,
						SubtopicTitle: st.Title,
						SubtopicOrder: st.Order,
						Similarity:    core.CosineSimilarity(vector, chunk.Vector),
					},
					position: chunk.Position,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; ties keep course order
	slices.SortFunc(results, func(a, b scored) int {
		if c := cmp.Compare(b.hit.Similarity, a.hit.Similarity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.hit.SubtopicOrder, b.hit.SubtopicOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.position, b.position)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	hits := make([]*core.RelevantChunk, len(results))
	for i, s := range results {
		hits[i] = s.hit
	}
	return hits, nil
}

// CountChunksByType counts the chunks of every subtopic of a topic per type.
func (r *ChunkRepository) CountChunksByType(ctx context.Context, topicID core.ID) (map[core.ChunkType]int, error) {
	counts := make(map[core.ChunkType]int)
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		subtopics, err := listSubtopics(tx, topicID)
		if err != nil {
			return err
		}
		for _, st := range subtopics {
			chunks, err := scanPrefix(tx, makePartialChunkKey(st.Id), storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				counts[chunk.Type]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
