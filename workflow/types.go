package workflow

import "github.com/poiesic/syllabus/core"

// Trigger asks the engine to run one action on a thread.
// Either ThreadID or SessionID identifies the thread.
type Trigger struct {
	SessionID      core.ID
	ThreadID       string
	Action         core.Action
	EditData       *core.EditData // edit only
	ConsultRequest string         // consult only
}

// Result is what an invocation reports back to the caller.
type Result struct {
	ThreadID        string
	CheckpointID    string
	Action          core.Action // the action that ran
	Content         string
	SubtopicTitle   string
	CurrentSubtopic int // 1-based
	TotalSubtopics  int
	Quiz            []core.QuizQuestion
	Suggestions     *core.Suggestions
	Published       bool // the current subtopic has been published in this thread
	Completed       bool // the session is complete
	Error           string
}

// StartRequest describes a new course to plan.
type StartRequest struct {
	Description string
	// Title defaults to the first 100 characters of Description.
	Title string
	Level string
	// Count is the number of subtopics to plan. Zero uses the engine default.
	Count int
}

// Plan is the outcome of StartSession.
type Plan struct {
	SessionID      core.ID
	TopicID        core.ID
	ThreadID       string
	SubtopicTitles []string
}

// Total returns the number of planned subtopics.
func (p *Plan) Total() int {
	return len(p.SubtopicTitles)
}

func newResult(s core.GenerationState, action core.Action, checkpointID string, completed bool) *Result {
	return &Result{
		ThreadID:        s.ThreadId,
		CheckpointID:    checkpointID,
		Action:          action,
		Content:         s.CurrentContent,
		SubtopicTitle:   s.CurrentTitle(),
		CurrentSubtopic: s.CurrentOrder(),
		TotalSubtopics:  s.Total,
		Quiz:            s.Quiz,
		Suggestions:     s.Suggestions,
		Published:       s.IsPublished(s.CurrentIndex),
		Completed:       completed,
		Error:           s.ErrorMessage,
	}
}
