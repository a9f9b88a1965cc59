package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already valid", `{"summary": "ok"}`, `{"summary": "ok"}`},
		{"code fence", "```json\n{\"summary\": \"ok\"}\n```", `{"summary": "ok"}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here you go: {"a": 1} Hope that helps.`, `{"a": 1}`},
		{"missing quote after brace", `{summary": "ok"}`, `{"summary": "ok"}`},
		{"missing quote after comma", `{"a": 1, correct_option": 2}`, `{"a": 1, "correct_option": 2}`},
		{"no object", "just text", "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}

func TestCleanJSON_Parses(t *testing.T) {
	raw := "```json\n{\"questions\": [{question\": \"What?\", \"options\": [\"a\", \"b\"], correct_option\": 1}]}\n```"

	var out quizResponse
	require.NoError(t, json.Unmarshal([]byte(cleanJSON(raw)), &out))
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "What?", out.Questions[0].Question)
}
