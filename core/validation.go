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


package core

import "fmt"

// ValidateState validates a GenerationState according to domain rules.
//
// Validation rules:
//   - ThreadId must not be empty
//   - Total must match the number of subtopic titles and be positive
//   - CurrentIndex must satisfy 0 <= index < total
//   - Action must belong to the closed action set
func ValidateState(s GenerationState) error {
	if s.ThreadId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidState, ErrMissingThreadID)
	}
	if s.Total <= 0 || s.Total != len(s.SubtopicTitles) {
		return fmt.Errorf("%w: total %d does not match %d subtopic titles", ErrInvalidState, s.Total, len(s.SubtopicTitles))
	}
	if err := ValidateIndex(s.CurrentIndex, s.Total); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if !s.Action.IsValid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidState, ErrUnknownAction, int(s.Action))
	}
	return nil
}

// ValidateIndex checks that a 0-based subtopic index lies within [0, total).
func ValidateIndex(index, total int) error {
	if index < 0 || index >= total {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, total)
	}
	return nil
}

// ValidateSubtopic validates a Subtopic according to domain rules.
//
// Validation rules:
//   - TopicId must be set
//   - Order is 1-based
//   - Title must not be empty
//
// Content may be empty until the first generation.
func ValidateSubtopic(st *Subtopic) error {
	if st == nil {
		return fmt.Errorf("%w: subtopic is nil", ErrInvalidSubtopic)
	}
	if st.TopicId == 0 {
		return fmt.Errorf("%w: topic id is required", ErrInvalidSubtopic)
	}
	if st.Order < 1 {
		return fmt.Errorf("%w: order must be >= 1, got %d", ErrInvalidSubtopic, st.Order)
	}
	if st.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidSubtopic)
	}
	return nil
}

// ValidateChunk validates a ContentChunk according to domain rules.
//
// NOT validated:
//   - Vector (empty until the embedding client runs)
//   - Id (derived from content when stored)
func ValidateChunk(c *ContentChunk) error {
	if c == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if c.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidChunk, ErrInvalidChunkType, c.Type)
	}
	return nil
}

// ValidateQuiz checks that every question has options and a correct option in range.
func ValidateQuiz(quiz []QuizQuestion) error {
	for i, q := range quiz {
		if q.Question == "" {
			return fmt.Errorf("question %d: %w", i, ErrEmptyContent)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d: no options", i)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("question %d: correct option %d out of range", i, q.CorrectOption)
		}
	}
	return nil
}
