package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/syllabus/ai"
)

const planPromptTemplate = `Create a learning plan for the topic: "%s"
%sEducation Level: %s

%s
Format the answer as a numbered list with one subtopic title per line and nothing else.`

const contentPromptTemplate = `Generate comprehensive educational content for:
Topic: %s
Subtopic: %s (%d of %d)
Education Level: %s

%s

MANDATORY STRUCTURE:
1. **Building on Previous Learning** (if this is not the first subtopic)
- Reference at least 2 specific concepts from the earlier lessons below using EXACT terminology
- Begin with: "Building on our exploration of [specific previous concept]..."

2. **Core Content for %s**
- Detailed, engaging content appropriate for %s
- Include examples and explanations
- Use consistent terminology established in previous subtopics

3. **Connections and Applications**
- Show explicit connections to previously covered material
- Use phrases like "As we learned when discussing..." or "This builds directly on the concept of..."

4. **Preparing for Future Learning**
- End with: "This foundation prepares us for understanding [next concept]..."
- Set up concepts for upcoming subtopics

Separate paragraphs with a blank line. Write in Markdown.
Length: 600-900 words`

const lessonWithQuizSchema = `{
  "content": "the full lesson in Markdown",
  "questions": [
    {
      "question": "string",
      "options": ["string", "string", "string", "string"],
      "correct_option": 0,
      "explanation": "string"
    }
  ]
}`

const quizInstructionsTemplate = `

Also write %d multiple choice questions that check understanding of the lesson.

Output ONLY valid JSON matching this shape, with no preamble or explanation:

%s

Rules:
- "content" holds the whole lesson; escape newlines inside the string.
- Each question has exactly 4 options.
- correct_option is the 0-based index of the correct option.
- Questions must be answerable from the lesson alone.`

const consultPromptTemplate = `Please review the content we just generated for "%s" and provide specific improvement suggestions based on this request: %s

Provide:
1. General suggestions for improvement
2. Specific recommended changes (as a list)

Format your response as JSON with keys: "suggestions" and "recommended_changes"`

// consultFallbackChange is offered when the model's review is not valid JSON
// and the raw text is returned as the summary.
const consultFallbackChange = "Review the suggestions above"

func buildPlanPrompt(req ai.PlanRequest) string {
	description := ""
	if req.TopicDescription != "" && req.TopicDescription != req.TopicTitle {
		description = fmt.Sprintf("Description: %s\n", req.TopicDescription)
	}

	var sizing string
	if req.Count > 0 {
		sizing = fmt.Sprintf("Return exactly %d subtopic titles that build progressively.", req.Count)
	} else {
		sizing = "Determine the best number of subtopics (between 3-8) and create titles that build progressively."
	}

	return fmt.Sprintf(planPromptTemplate, req.TopicTitle, description, req.Level, sizing)
}

func buildContentPrompt(req ai.SubtopicRequest) string {
	return fmt.Sprintf(contentPromptTemplate,
		req.TopicTitle,
		req.SubtopicTitle, req.Order, req.Total,
		req.Level,
		coherenceRequirements(req),
		req.SubtopicTitle,
		req.Level)
}

func coherenceRequirements(req ai.SubtopicRequest) string {
	var b strings.Builder
	if req.Context == "" {
		b.WriteString("This is the first subtopic, so focus on establishing foundational concepts clearly.")
	} else {
		b.WriteString("COHERENCE REQUIREMENTS - THESE ARE MANDATORY:\n")
		b.WriteString("1. You MUST reference concepts from the previous lessons below\n")
		b.WriteString("2. You MUST use the EXACT terminology from previous content (not synonyms)\n")
		b.WriteString("3. You MUST start the main content with a connection to previous learning\n\n")
		b.WriteString(req.Context)
	}
	if len(req.UpcomingTitles) > 0 {
		b.WriteString("\n\nPrepare foundation for these upcoming subtopics: ")
		b.WriteString(strings.Join(req.UpcomingTitles, ", "))
	}
	return b.String()
}

func buildLessonWithQuizPrompt(req ai.SubtopicRequest) string {
	return buildContentPrompt(req) + fmt.Sprintf(quizInstructionsTemplate, req.QuizQuestions, lessonWithQuizSchema)
}

func buildConsultPrompt(req ai.ConsultRequest) string {
	return fmt.Sprintf(consultPromptTemplate, req.SubtopicTitle, req.Request)
}
