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


package storage

import (
	"fmt"

	"github.com/poiesic/syllabus/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	var e encoder
	e.uint64(uint64(id))
	return e.buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{bs: data}
	id := core.ID(d.uint64())
	return id, d.finish("id")
}

// MarshalTopic serializes a Topic to bytes.
func MarshalTopic(topic *core.Topic) []byte {
	var e encoder
	e.uint64(uint64(topic.Id))
	e.string(topic.Title)
	e.string(topic.Description)
	e.string(topic.Level)
	e.strings(topic.SubtopicTitles)
	e.time(topic.InsertedAt)
	e.time(topic.UpdatedAt)
	return e.buf
}

// UnmarshalTopic deserializes a Topic from bytes.
func UnmarshalTopic(data []byte) (*core.Topic, error) {
	d := decoder{bs: data}
	topic := &core.Topic{
		Id:             core.ID(d.uint64()),
		Title:          d.string(),
		Description:    d.string(),
		Level:          d.string(),
		SubtopicTitles: d.strings(),
		InsertedAt:     d.time(),
		UpdatedAt:      d.time(),
	}
	if err := d.finish("topic"); err != nil {
		return nil, err
	}
	return topic, nil
}

// MarshalSession serializes a Session to bytes.
func MarshalSession(session *core.Session) []byte {
	var e encoder
	e.uint64(uint64(session.Id))
	e.uint64(uint64(session.TopicId))
	e.string(session.ThreadId)
	e.int(int(session.Status))
	e.int(session.CurrentSubtopic)
	e.int(session.ConversationTokens)
	e.time(session.InsertedAt)
	e.time(session.UpdatedAt)
	return e.buf
}

// UnmarshalSession deserializes a Session from bytes.
func UnmarshalSession(data []byte) (*core.Session, error) {
	d := decoder{bs: data}
	session := &core.Session{
		Id:                 core.ID(d.uint64()),
		TopicId:            core.ID(d.uint64()),
		ThreadId:           d.string(),
		Status:             core.SessionStatus(d.int()),
		CurrentSubtopic:    d.int(),
		ConversationTokens: d.int(),
		InsertedAt:         d.time(),
		UpdatedAt:          d.time(),
	}
	if err := d.finish("session"); err != nil {
		return nil, err
	}
	return session, nil
}

func (e *encoder) quiz(quiz []core.QuizQuestion) {
	e.int(len(quiz))
	for _, q := range quiz {
		e.string(q.Question)
		e.strings(q.Options)
		e.int(q.CorrectOption)
		e.string(q.Explanation)
	}
}

func (d *decoder) quiz() []core.QuizQuestion {
	n := d.length(4)
	if n == 0 {
		return nil
	}
	out := make([]core.QuizQuestion, n)
	for i := range out {
		out[i] = core.QuizQuestion{
			Question:      d.string(),
			Options:       d.strings(),
			CorrectOption: d.int(),
			Explanation:   d.string(),
		}
	}
	return out
}

// MarshalSubtopic serializes a Subtopic to bytes.
func MarshalSubtopic(st *core.Subtopic) []byte {
	var e encoder
	e.uint64(uint64(st.Id))
	e.uint64(uint64(st.TopicId))
	e.int(st.Order)
	e.string(st.Title)
	e.string(st.Content)
	e.bool(st.IsPublished)
	e.time(st.PublishedAt)
	e.quiz(st.Quiz)
	e.time(st.InsertedAt)
	e.time(st.UpdatedAt)
	return e.buf
}

// UnmarshalSubtopic deserializes a Subtopic from bytes.
func UnmarshalSubtopic(data []byte) (*core.Subtopic, error) {
	d := decoder{bs: data}
	st := &core.Subtopic{
		Id:          core.ID(d.uint64()),
		TopicId:     core.ID(d.uint64()),
		Order:       d.int(),
		Title:       d.string(),
		Content:     d.string(),
		IsPublished: d.bool(),
		PublishedAt: d.time(),
		Quiz:        d.quiz(),
		InsertedAt:  d.time(),
		UpdatedAt:   d.time(),
	}
	if err := d.finish("subtopic"); err != nil {
		return nil, err
	}
	return st, nil
}

// MarshalChunk serializes a ContentChunk to bytes.
func MarshalChunk(chunk *core.ContentChunk) []byte {
	var e encoder
	e.uint64(uint64(chunk.Id))
	e.uint64(uint64(chunk.SubtopicId))
	e.int(chunk.Position)
	e.string(string(chunk.Type))
	e.string(chunk.Content)
	e.vector(chunk.Vector)
	e.int(chunk.TokenCount)
	e.time(chunk.InsertedAt)
	return e.buf
}

// UnmarshalChunk deserializes a ContentChunk from bytes.
func UnmarshalChunk(data []byte) (*core.ContentChunk, error) {
	d := decoder{bs: data}
	chunk := &core.ContentChunk{
		Id:         core.ID(d.uint64()),
		SubtopicId: core.ID(d.uint64()),
		Position:   d.int(),
		Type:       core.ChunkType(d.string()),
		Content:    d.string(),
		Vector:     d.vector(),
		TokenCount: d.int(),
		InsertedAt: d.time(),
	}
	if err := d.finish("chunk"); err != nil {
		return nil, err
	}
	return chunk, nil
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(msg *core.Message) []byte {
	var e encoder
	e.uint64(uint64(msg.Id))
	e.uint64(uint64(msg.SessionId))
	e.int(int(msg.Role))
	e.string(msg.Content)
	e.int(msg.SubtopicIndex)
	e.int(msg.TokenCount)
	e.time(msg.InsertedAt)
	return e.buf
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	d := decoder{bs: data}
	msg := &core.Message{
		Id:            core.ID(d.uint64()),
		SessionId:     core.ID(d.uint64()),
		Role:          core.Role(d.int()),
		Content:       d.string(),
		SubtopicIndex: d.int(),
		TokenCount:    d.int(),
		InsertedAt:    d.time(),
	}
	if err := d.finish("message"); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(cp *core.Checkpoint) []byte {
	var e encoder
	e.string(cp.ThreadId)
	e.string(cp.CheckpointId)
	e.string(string(cp.State))
	e.stringMap(cp.Metadata)
	e.time(cp.CreatedAt)
	return e.buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	d := decoder{bs: data}
	cp := &core.Checkpoint{
		ThreadId:     d.string(),
		CheckpointId: d.string(),
	}
	if state := d.string(); state != "" {
		cp.State = []byte(state)
	}
	cp.Metadata = d.stringMap()
	cp.CreatedAt = d.time()
	if err := d.finish("checkpoint"); err != nil {
		return nil, err
	}
	return cp, nil
}

// stateVersion prefixes every encoded GenerationState.
const stateVersion = 1

// MarshalState serializes a GenerationState into a checkpoint blob.
func MarshalState(s core.GenerationState) []byte {
	var e encoder
	e.int(stateVersion)
	e.uint64(uint64(s.SessionId))
	e.string(s.ThreadId)
	e.uint64(uint64(s.TopicId))
	e.string(s.TopicTitle)
	e.string(s.TopicDescription)
	e.string(s.Level)
	e.strings(s.SubtopicTitles)
	e.int(s.CurrentIndex)
	e.int(s.Total)
	e.int(int(s.Action))
	e.bool(s.EditData != nil)
	if s.EditData != nil {
		e.string(s.EditData.Title)
		e.string(s.EditData.Content)
	}
	e.string(s.ConsultRequest)
	e.string(s.CurrentContent)
	e.bool(s.Suggestions != nil)
	if s.Suggestions != nil {
		e.string(s.Suggestions.Summary)
		e.strings(s.Suggestions.Changes)
	}
	e.quiz(s.Quiz)
	e.ints(s.PublishedIndices)
	e.string(s.ErrorMessage)
	return e.buf
}

// UnmarshalState deserializes a checkpoint blob into a GenerationState.
func UnmarshalState(data []byte) (core.GenerationState, error) {
	d := decoder{bs: data}
	if v := d.int(); d.err == nil && v != stateVersion {
		return core.GenerationState{}, fmt.Errorf("%w: unsupported state version %d", ErrSerializationFailed, v)
	}
	s := core.GenerationState{
		SessionId:        core.ID(d.uint64()),
		ThreadId:         d.string(),
		TopicId:          core.ID(d.uint64()),
		TopicTitle:       d.string(),
		TopicDescription: d.string(),
		Level:            d.string(),
		SubtopicTitles:   d.strings(),
		CurrentIndex:     d.int(),
		Total:            d.int(),
		Action:           core.Action(d.int()),
	}
	if d.bool() {
		s.EditData = &core.EditData{Title: d.string(), Content: d.string()}
	}
	s.ConsultRequest = d.string()
	s.CurrentContent = d.string()
	if d.bool() {
		s.Suggestions = &core.Suggestions{Summary: d.string(), Changes: d.strings()}
	}
	s.Quiz = d.quiz()
	s.PublishedIndices = d.ints()
	s.ErrorMessage = d.string()
	if err := d.finish("generation state"); err != nil {
		return core.GenerationState{}, err
	}
	return s, nil
}
