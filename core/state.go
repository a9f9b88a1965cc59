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

import (
	"fmt"
	"slices"
	"strings"
)

// Action is the closed set of workflow transitions. ActionNone is terminal.
type Action int

const (
	ActionNone Action = iota
	ActionGenerate
	ActionEdit
	ActionConsult
	ActionPublish
	ActionNext
)

// Actions lists every non-terminal action.
var Actions = []Action{ActionGenerate, ActionEdit, ActionConsult, ActionPublish, ActionNext}

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionGenerate:
		return "generate"
	case ActionEdit:
		return "edit"
	case ActionConsult:
		return "consult"
	case ActionPublish:
		return "publish"
	case ActionNext:
		return "next"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// IsTerminal reports whether a ends the workflow.
func (a Action) IsTerminal() bool {
	return a == ActionNone
}

// IsValid reports whether a is a member of the action enum.
func (a Action) IsValid() bool {
	return a >= ActionNone && a <= ActionNext
}

// ParseAction converts an external action name into an Action.
// Unknown names are rejected rather than mapped to the terminal action.
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "generate":
		return ActionGenerate, nil
	case "edit":
		return ActionEdit, nil
	case "consult":
		return ActionConsult, nil
	case "publish":
		return ActionPublish, nil
	case "next":
		return ActionNext, nil
	case "", "none":
		return ActionNone, nil
	}
	return ActionNone, NewValidationError("parse action", fmt.Errorf("%w: %q", ErrUnknownAction, name))
}

// EditData carries a manual replacement for the current subtopic.
type EditData struct {
	Title   string
	Content string
}

// GenerationState is the workflow state for one thread. It is rebuilt from the
// latest checkpoint on every invocation and treated as a value: the With*
// methods return modified copies and never touch the receiver.
type GenerationState struct {
	SessionId        ID
	ThreadId         string
	TopicId          ID
	TopicTitle       string
	TopicDescription string
	Level            string
	SubtopicTitles   []string
	CurrentIndex     int // 0-based
	Total            int
	Action           Action
	EditData         *EditData
	ConsultRequest   string
	CurrentContent   string
	Suggestions      *Suggestions
	Quiz             []QuizQuestion
	PublishedIndices []int
	ErrorMessage     string
}

// clone returns a deep copy so that callers can modify the result freely.
func (s GenerationState) clone() GenerationState {
	c := s
	c.SubtopicTitles = slices.Clone(s.SubtopicTitles)
	c.PublishedIndices = slices.Clone(s.PublishedIndices)
	c.Quiz = cloneQuiz(s.Quiz)
	if s.EditData != nil {
		ed := *s.EditData
		c.EditData = &ed
	}
	if s.Suggestions != nil {
		sg := Suggestions{Summary: s.Suggestions.Summary, Changes: slices.Clone(s.Suggestions.Changes)}
		c.Suggestions = &sg
	}
	return c
}

func cloneQuiz(q []QuizQuestion) []QuizQuestion {
	if q == nil {
		return nil
	}
	out := make([]QuizQuestion, len(q))
	for i, question := range q {
		out[i] = question
		out[i].Options = slices.Clone(question.Options)
	}
	return out
}

// CurrentTitle returns the title of the subtopic under the index pointer.
func (s GenerationState) CurrentTitle() string {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.SubtopicTitles) {
		return ""
	}
	return s.SubtopicTitles[s.CurrentIndex]
}

// CurrentOrder returns the 1-based order of the current subtopic.
func (s GenerationState) CurrentOrder() int {
	return s.CurrentIndex + 1
}

// IsPublished reports whether the subtopic at index has been published in this thread.
func (s GenerationState) IsPublished(index int) bool {
	return slices.Contains(s.PublishedIndices, index)
}

// WithAction returns a copy with the action replaced.
func (s GenerationState) WithAction(a Action) GenerationState {
	c := s.clone()
	c.Action = a
	return c
}

// WithEditData returns a copy carrying an edit payload.
func (s GenerationState) WithEditData(ed *EditData) GenerationState {
	c := s.clone()
	if ed != nil {
		cp := *ed
		c.EditData = &cp
	} else {
		c.EditData = nil
	}
	return c
}

// WithConsultRequest returns a copy carrying a consultation request.
func (s GenerationState) WithConsultRequest(req string) GenerationState {
	c := s.clone()
	c.ConsultRequest = req
	return c
}

// WithContent returns a copy whose current content and quiz are replaced.
func (s GenerationState) WithContent(content string, quiz []QuizQuestion) GenerationState {
	c := s.clone()
	c.CurrentContent = content
	c.Quiz = cloneQuiz(quiz)
	return c
}

// WithTitle returns a copy with the title of the current subtopic replaced.
func (s GenerationState) WithTitle(title string) GenerationState {
	c := s.clone()
	if c.CurrentIndex >= 0 && c.CurrentIndex < len(c.SubtopicTitles) {
		c.SubtopicTitles[c.CurrentIndex] = title
	}
	return c
}

// WithSuggestions returns a copy holding consultation results.
func (s GenerationState) WithSuggestions(sg *Suggestions) GenerationState {
	c := s.clone()
	if sg != nil {
		cp := Suggestions{Summary: sg.Summary, Changes: slices.Clone(sg.Changes)}
		c.Suggestions = &cp
	} else {
		c.Suggestions = nil
	}
	return c
}

// WithPublished returns a copy that records the current index as published.
func (s GenerationState) WithPublished() GenerationState {
	c := s.clone()
	if !slices.Contains(c.PublishedIndices, c.CurrentIndex) {
		c.PublishedIndices = append(c.PublishedIndices, c.CurrentIndex)
		slices.Sort(c.PublishedIndices)
	}
	return c
}

// WithUnpublished returns a copy with the current index removed from
// PublishedIndices.
func (s GenerationState) WithUnpublished() GenerationState {
	c := s.clone()
	c.PublishedIndices = slices.DeleteFunc(c.PublishedIndices, func(i int) bool { return i == c.CurrentIndex })
	return c
}

// Advanced returns a copy pointing at the next subtopic with every
// per-subtopic field cleared.
func (s GenerationState) Advanced() GenerationState {
	c := s.clone()
	c.CurrentIndex++
	c.CurrentContent = ""
	c.Quiz = nil
	c.Suggestions = nil
	c.ConsultRequest = ""
	c.EditData = nil
	return c
}

// Failed returns a terminal copy carrying an error message.
func (s GenerationState) Failed(msg string) GenerationState {
	c := s.clone()
	c.Action = ActionNone
	c.ErrorMessage = msg
	return c
}

// Succeeded returns a terminal copy with any previous error cleared.
func (s GenerationState) Succeeded() GenerationState {
	c := s.clone()
	c.Action = ActionNone
	c.ErrorMessage = ""
	return c
}
