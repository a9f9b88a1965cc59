package storage

import (
	"testing"
	"time"

	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtopic_RoundTripKeepsUnpublishedZeroTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	st := &core.Subtopic{
		Id:         7,
		TopicId:    3,
		Order:      2,
		Title:      "Channels",
		Content:    "Channels connect goroutines.",
		InsertedAt: now,
		UpdatedAt:  now,
		Quiz: []core.QuizQuestion{
			{Question: "What does a channel connect?", Options: []string{"goroutines", "files"}, CorrectOption: 0},
		},
	}

	got, err := UnmarshalSubtopic(MarshalSubtopic(st))
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.True(t, got.PublishedAt.IsZero())
}

func TestChunk_RoundTripKeepsVector(t *testing.T) {
	chunk := &core.ContentChunk{
		Id:         core.IDFromContent("x"),
		SubtopicId: 9,
		Position:   4,
		Type:       core.ChunkTypeExample,
		Content:    "For example, a buffered channel...",
		Vector:     []float32{0.25, -0.5, 1},
		TokenCount: 5,
	}
	got, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestCheckpoint_MetadataEncodingIsDeterministic(t *testing.T) {
	cp := &core.Checkpoint{
		ThreadId:     "gen_1_abcd",
		CheckpointId: "1700000000000_deadbeef",
		State:        []byte{1, 2, 3},
		Metadata:     map[string]string{"action": "generate", "step": "3", "b": "x", "a": "y"},
		CreatedAt:    time.UnixMicro(1700000000000000).UTC(),
	}
	first := MarshalCheckpoint(cp)
	for range 10 {
		assert.Equal(t, first, MarshalCheckpoint(cp))
	}
	got, err := UnmarshalCheckpoint(first)
	require.NoError(t, err)
	assert.Equal(t, cp, got)
}

func TestState_RoundTrip(t *testing.T) {
	s := core.GenerationState{
		SessionId:        2,
		ThreadId:         "gen_2_cafebabe",
		TopicId:          5,
		TopicTitle:       "Go",
		Level:            "beginner",
		SubtopicTitles:   []string{"Intro", "Types"},
		CurrentIndex:     1,
		Total:            2,
		Action:           core.ActionEdit,
		EditData:         &core.EditData{Title: "Types", Content: "edited"},
		CurrentContent:   "content",
		Suggestions:      &core.Suggestions{Summary: "add examples", Changes: []string{"one", "two"}},
		PublishedIndices: []int{0},
		ErrorMessage:     "",
	}
	got, err := UnmarshalState(MarshalState(s))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestUnmarshal_TruncatedData(t *testing.T) {
	data := MarshalSubtopic(&core.Subtopic{Id: 1, TopicId: 1, Order: 1, Title: "Intro", Content: "body"})
	_, err := UnmarshalSubtopic(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalState(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalState_RejectsUnknownVersion(t *testing.T) {
	var e encoder
	e.int(99)
	_, err := UnmarshalState(e.buf)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestID_RoundTrip(t *testing.T) {
	id, err := UnmarshalID(MarshalID(core.ID(1 << 62)))
	require.NoError(t, err)
	assert.Equal(t, core.ID(1<<62), id)
}
