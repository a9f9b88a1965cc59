package ai

import "github.com/poiesic/syllabus/core"

// DefaultSubtopicCount is the number of subtopics requested when a plan
// does not ask for a specific count.
const DefaultSubtopicCount = 5

// PlanRequest describes a topic to break into subtopics.
type PlanRequest struct {
	TopicTitle       string
	TopicDescription string
	Level            string
	// Count is the desired number of subtopics. Zero lets the model choose
	// within its usual range.
	Count int
}

// SubtopicRequest is everything the model needs to write one subtopic.
type SubtopicRequest struct {
	TopicTitle       string
	TopicDescription string
	SubtopicTitle    string
	Level            string
	Order            int // 1-based
	Total            int
	// Context is the formatted retrieval context from earlier published lessons.
	Context string
	// UpcomingTitles lists the subtopics that follow this one.
	UpcomingTitles []string
	IncludeQuiz    bool
	QuizQuestions  int
}

// SubtopicDraft is a generated subtopic before it is stored.
type SubtopicDraft struct {
	Content string
	Quiz    []core.QuizQuestion
}

// ConsultRequest asks the model to review the current subtopic.
type ConsultRequest struct {
	SubtopicTitle string
	Content       string
	Request       string
}

// ChatMessage is one conversation turn passed to the model.
type ChatMessage struct {
	Role    core.Role
	Content string
}
