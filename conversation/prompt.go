package conversation

import (
	"fmt"
	"strings"

	"github.com/poiesic/syllabus/core"
)

const systemPromptTemplate = `You are generating comprehensive educational content for a course on "%s" at the %s level.

Course Description: %s

Course Structure:
%s

Your role:
- Generate detailed, engaging educational content for each subtopic in sequence
- Build concepts progressively, referencing and building upon previous subtopics naturally
- Maintain consistent terminology and examples throughout
- Use clear structure with headings and bullet points
- Target 500-800 words per subtopic
- Reference previous concepts when relevant (e.g., "As we discussed in our coverage of...")

You will be prompted to generate content for each subtopic in order. Each should flow naturally from what came before while standing as complete educational material.`

// SystemPrompt describes the course to the model.
func SystemPrompt(topic *core.Topic) string {
	lines := make([]string, len(topic.SubtopicTitles))
	for i, title := range topic.SubtopicTitles {
		lines[i] = fmt.Sprintf("%d. %s", i+1, title)
	}
	return fmt.Sprintf(systemPromptTemplate, topic.Title, topic.Level, topic.Description, strings.Join(lines, "\n"))
}

// GenerationRequest is the user turn logged when a subtopic is generated.
func GenerationRequest(order int, title string) string {
	return fmt.Sprintf("Generate content for subtopic %d: %s", order, title)
}

// EditNotice is the user turn logged when a subtopic is replaced by hand.
func EditNotice(order int, title string) string {
	return fmt.Sprintf("I edited subtopic %d (%s). The revised content follows.", order, title)
}
