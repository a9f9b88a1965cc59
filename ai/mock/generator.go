package mock

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields and records every
// subtopic request it receives.
type MockGenerator struct {
	PlanSubtopicsFunc       func(ctx context.Context, req ai.PlanRequest) ([]string, error)
	GenerateSubtopicFunc    func(ctx context.Context, req ai.SubtopicRequest) (*ai.SubtopicDraft, error)
	SuggestImprovementsFunc func(ctx context.Context, history []ai.ChatMessage, req ai.ConsultRequest) (*core.Suggestions, error)

	mu        sync.Mutex
	callCount int
	requests  []ai.SubtopicRequest
}

// NewMockGenerator creates a mock generator with default deterministic behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) record(req *ai.SubtopicRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if req != nil {
		r := *req
		r.UpcomingTitles = slices.Clone(req.UpcomingTitles)
		m.requests = append(m.requests, r)
	}
}

// PlanSubtopics returns numbered titles derived from the topic.
func (m *MockGenerator) PlanSubtopics(ctx context.Context, req ai.PlanRequest) ([]string, error) {
	m.record(nil)
	if m.PlanSubtopicsFunc != nil {
		return m.PlanSubtopicsFunc(ctx, req)
	}

	count := req.Count
	if count <= 0 {
		count = ai.DefaultSubtopicCount
	}
	titles := make([]string, count)
	for i := range titles {
		titles[i] = fmt.Sprintf("%s part %d", req.TopicTitle, i+1)
	}
	return titles, nil
}

// GenerateSubtopic returns a lesson whose paragraphs exercise each chunk type.
func (m *MockGenerator) GenerateSubtopic(ctx context.Context, req ai.SubtopicRequest) (*ai.SubtopicDraft, error) {
	m.record(&req)
	if m.GenerateSubtopicFunc != nil {
		return m.GenerateSubtopicFunc(ctx, req)
	}

	draft := &ai.SubtopicDraft{Content: LessonContent(req.SubtopicTitle)}
	if req.IncludeQuiz {
		for i := 0; i < req.QuizQuestions; i++ {
			draft.Quiz = append(draft.Quiz, core.QuizQuestion{
				Question:      fmt.Sprintf("Question %d about %s?", i+1, req.SubtopicTitle),
				Options:       []string{"A", "B", "C", "D"},
				CorrectOption: i % 4,
				Explanation:   "Because the lesson says so.",
			})
		}
	}
	return draft, nil
}

// SuggestImprovements returns a fixed suggestion naming the subtopic.
func (m *MockGenerator) SuggestImprovements(ctx context.Context, history []ai.ChatMessage, req ai.ConsultRequest) (*core.Suggestions, error) {
	m.record(nil)
	if m.SuggestImprovementsFunc != nil {
		return m.SuggestImprovementsFunc(ctx, history, req)
	}

	return &core.Suggestions{
		Summary: fmt.Sprintf("Expand %s: %s", req.SubtopicTitle, req.Request),
		Changes: []string{"Add a worked example"},
	}, nil
}

// CallCount returns the number of times any method was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns copies of the subtopic requests received so far.
func (m *MockGenerator) Requests() []ai.SubtopicRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Reset clears the call count, recorded requests and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.PlanSubtopicsFunc = nil
	m.GenerateSubtopicFunc = nil
	m.SuggestImprovementsFunc = nil
}

// LessonContent is the default generated body for a subtopic title.
func LessonContent(title string) string {
	paragraphs := []string{
		fmt.Sprintf("%s is defined as the study of how the parts of the subject fit together in practice.", title),
		fmt.Sprintf("For example, a small exercise shows how %s behaves when the inputs change one at a time.", title),
		fmt.Sprintf("Step 1: write down what you already know about %s. Step 2: compare it with the new material.", title),
		fmt.Sprintf("In the real world %s gets used for planning larger projects and for explaining results to others.", title),
		fmt.Sprintf("Underneath all of this sits one idea that ties %s back to the rest of the course material.", title),
	}
	return strings.Join(paragraphs, "\n\n")
}
