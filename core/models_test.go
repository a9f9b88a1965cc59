package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "A definition is a statement of the exact meaning of a word, phrase, or concept used in a lesson."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("content1") == IDFromContent("content2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkType_IsValid(t *testing.T) {
	for _, ct := range ChunkTypes {
		if !ct.IsValid() {
			t.Errorf("%q should be valid", ct)
		}
	}
	for _, ct := range []ChunkType{"", "summary", "Definition"} {
		if ct.IsValid() {
			t.Errorf("%q should not be valid", ct)
		}
	}
}

func TestTopic_Total(t *testing.T) {
	topic := &Topic{SubtopicTitles: []string{"a", "b", "c"}}
	if got := topic.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}

func TestSessionStatus_String(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   string
	}{
		{SessionStatusPlanning, "planning"},
		{SessionStatusGenerating, "generating"},
		{SessionStatusCompleted, "completed"},
		{SessionStatusCancelled, "cancelled"},
		{SessionStatus(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRole_String(t *testing.T) {
	if RoleSystem.String() != "system" || RoleUser.String() != "user" || RoleAssistant.String() != "assistant" {
		t.Error("unexpected role names")
	}
	if Role(42).String() != "unknown" {
		t.Error("out of range role should be unknown")
	}
}
