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


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// parseAttempts bounds how many times a JSON answer is requested before giving up.
const parseAttempts = 3

// chatModel is the subset of llms.Model used by the generator.
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      chatModel
	model       string
	temperature float64
	maxTokens   int
	limiter     *limiterPool
	metrics     *metrics.Collector
	logger      *slog.Logger
}

type quizResponse struct {
	Questions []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"`
		Explanation   string   `json:"explanation"`
	} `json:"questions"`
}

func (r quizResponse) quiz() []core.QuizQuestion {
	quiz := make([]core.QuizQuestion, 0, len(r.Questions))
	for _, q := range r.Questions {
		quiz = append(quiz, core.QuizQuestion{
			Question:      strings.TrimSpace(q.Question),
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   strings.TrimSpace(q.Explanation),
		})
	}
	return quiz
}

// lessonResponse is the JSON answer to a lesson-with-quiz prompt.
type lessonResponse struct {
	Content string `json:"content"`
	quizResponse
}

type consultResponse struct {
	Suggestions        json.RawMessage `json:"suggestions"`
	RecommendedChanges []string        `json:"recommended_changes"`
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config, limiter *limiterPool, collector *metrics.Collector) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.Token
	if token == "" {
		// Local OpenAI-compatible services don't require authentication
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(token),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		model:       config.GenerationModel,
		temperature: config.Temperature,
		maxTokens:   config.MaxOutputTokens,
		limiter:     limiter,
		metrics:     collector,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config, newLimiterPool(config.RequestsPerMinute, nil), nil)
}

// complete runs one chat completion and returns the text of the first choice.
func (g *Generator) complete(ctx context.Context, op string, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	if err := g.limiter.wait(ctx, g.model); err != nil {
		return "", core.NewModelCallError(op, g.model, err)
	}

	start := time.Now()
	response, err := g.client.GenerateContent(ctx, messages, opts...)
	g.metrics.RecordModelCall(g.model, op, time.Since(start), err == nil)
	if err != nil {
		g.logger.Error("model call failed", "op", op, "err", err)
		return "", core.NewModelCallError(op, g.model, err)
	}
	if len(response.Choices) < 1 {
		return "", core.NewModelCallError(op, g.model, errors.New("no choices returned from model"))
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

// PlanSubtopics asks the model for a numbered list of subtopic titles.
func (g *Generator) PlanSubtopics(ctx context.Context, req ai.PlanRequest) ([]string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildPlanPrompt(req)),
	}

	text, err := g.complete(ctx, "plan subtopics", messages, llms.WithTemperature(g.temperature))
	if err != nil {
		return nil, err
	}

	titles := parseNumberedList(text)
	if req.Count > 0 && len(titles) > req.Count {
		titles = titles[:req.Count]
	}
	if len(titles) == 0 {
		g.logger.Warn("plan contained no numbered items", "response", text)
		return nil, core.NewModelCallError("plan subtopics", g.model, errors.New("no subtopic titles in response"))
	}

	g.logger.Debug("planned subtopics", "topic", req.TopicTitle, "count", len(titles))
	return titles, nil
}

// GenerateSubtopic writes one lesson in a single model call. With a quiz
// requested the call runs in JSON mode and returns the lesson and its
// questions together.
func (g *Generator) GenerateSubtopic(ctx context.Context, req ai.SubtopicRequest) (*ai.SubtopicDraft, error) {
	const op = "generate subtopic"
	if req.IncludeQuiz && req.QuizQuestions > 0 {
		return g.generateWithQuiz(ctx, req)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildContentPrompt(req)),
	}
	content, err := g.complete(ctx, op, messages,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, core.NewModelCallError(op, g.model, core.ErrEmptyContent)
	}
	return &ai.SubtopicDraft{Content: content}, nil
}

// generateWithQuiz asks for the lesson and quiz as one JSON object, retrying
// answers that do not parse. A lesson whose quiz never validates is kept
// without one.
func (g *Generator) generateWithQuiz(ctx context.Context, req ai.SubtopicRequest) (*ai.SubtopicDraft, error) {
	const op = "generate subtopic"
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildLessonWithQuizPrompt(req)),
	}

	var content string
	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		text, err := g.complete(ctx, op, messages,
			llms.WithTemperature(g.temperature),
			llms.WithMaxTokens(g.maxTokens),
			llms.WithJSONMode())
		if err != nil {
			return nil, err
		}

		var result lessonResponse
		if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
			lastErr = err
			g.logger.Warn("error parsing lesson response", "attempt", attempt+1, "err", err)
			continue
		}
		if strings.TrimSpace(result.Content) == "" {
			lastErr = core.ErrEmptyContent
			g.logger.Warn("lesson response has no content", "attempt", attempt+1)
			continue
		}
		content = strings.TrimSpace(result.Content)

		quiz := result.quiz()
		if len(quiz) == 0 {
			lastErr = errors.New("no quiz questions in response")
			g.logger.Warn("lesson response has no quiz", "attempt", attempt+1)
			continue
		}
		if err := core.ValidateQuiz(quiz); err != nil {
			lastErr = err
			g.logger.Warn("model returned an invalid quiz", "attempt", attempt+1, "err", err)
			continue
		}
		return &ai.SubtopicDraft{Content: content, Quiz: quiz}, nil
	}

	if content != "" {
		g.logger.Warn("keeping lesson without quiz", "subtopic", req.SubtopicTitle, "err", lastErr)
		return &ai.SubtopicDraft{Content: content}, nil
	}
	return nil, core.NewModelCallError(op, g.model, lastErr)
}

// SuggestImprovements reviews the current lesson within the consult conversation.
// A response that is not valid JSON is returned verbatim as the summary.
func (g *Generator) SuggestImprovements(ctx context.Context, history []ai.ChatMessage, req ai.ConsultRequest) (*core.Suggestions, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	for _, m := range history {
		messages = append(messages, llms.TextParts(messageType(m.Role), m.Content))
	}
	if req.Content != "" && !historyContains(history, req.Content) {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, req.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, buildConsultPrompt(req)))

	text, err := g.complete(ctx, "suggest improvements", messages,
		llms.WithTemperature(0.5),
		llms.WithMaxTokens(800))
	if err != nil {
		return nil, err
	}
	return parseSuggestions(text), nil
}

func parseSuggestions(text string) *core.Suggestions {
	var result consultResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil || len(result.Suggestions) == 0 {
		return &core.Suggestions{Summary: text, Changes: []string{consultFallbackChange}}
	}

	// Models sometimes answer with a list of suggestions instead of prose.
	var summary string
	var list []string
	if err := json.Unmarshal(result.Suggestions, &summary); err != nil {
		if err := json.Unmarshal(result.Suggestions, &list); err != nil {
			summary = string(result.Suggestions)
		} else {
			summary = strings.Join(list, "\n")
		}
	}

	changes := make([]string, 0, len(result.RecommendedChanges))
	for _, c := range result.RecommendedChanges {
		if c = strings.TrimSpace(c); c != "" {
			changes = append(changes, c)
		}
	}
	return &core.Suggestions{Summary: strings.TrimSpace(summary), Changes: changes}
}

func historyContains(history []ai.ChatMessage, content string) bool {
	for _, m := range history {
		if m.Content == content {
			return true
		}
	}
	return false
}

func messageType(r core.Role) llms.ChatMessageType {
	switch r {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}

var numberedItem = regexp.MustCompile(`^\s*\d{1,2}\s*[.)]\s*(.+)$`)

// parseNumberedList extracts the items of a numbered list, ignoring any
// surrounding prose and Markdown emphasis.
func parseNumberedList(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		m := numberedItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := strings.Trim(strings.TrimSpace(m[1]), "*_#`")
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

