package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkType classifies a fragment of generated content by its educational role.
type ChunkType string

const (
	ChunkTypeDefinition  ChunkType = "definition"
	ChunkTypeExample     ChunkType = "example"
	ChunkTypeProcedure   ChunkType = "procedure"
	ChunkTypeApplication ChunkType = "application"
	ChunkTypeConcept     ChunkType = "concept"
)

// ChunkTypes lists every chunk type in classification priority order.
// Concept is last because it is the fallback classification.
var ChunkTypes = []ChunkType{
	ChunkTypeDefinition,
	ChunkTypeExample,
	ChunkTypeProcedure,
	ChunkTypeApplication,
	ChunkTypeConcept,
}

// IsValid reports whether t is one of the known chunk types.
func (t ChunkType) IsValid() bool {
	switch t {
	case ChunkTypeDefinition, ChunkTypeExample, ChunkTypeProcedure,
		ChunkTypeApplication, ChunkTypeConcept:
		return true
	}
	return false
}

// Topic is a planned course. Its subtopic titles are fixed when the plan is made.
type Topic struct {
	Id             ID
	Title          string
	Description    string
	Level          string
	SubtopicTitles []string
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Total returns the number of planned subtopics.
func (t *Topic) Total() int {
	return len(t.SubtopicTitles)
}

// SessionStatus tracks where a generation session is in its lifecycle.
type SessionStatus int

const (
	SessionStatusPlanning SessionStatus = iota + 1
	SessionStatusGenerating
	SessionStatusCompleted
	SessionStatusCancelled
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusPlanning:
		return "planning"
	case SessionStatusGenerating:
		return "generating"
	case SessionStatusCompleted:
		return "completed"
	case SessionStatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Session binds a topic to the checkpoint thread that drives its generation.
type Session struct {
	Id                 ID
	TopicId            ID
	ThreadId           string
	Status             SessionStatus
	CurrentSubtopic    int // 1-based; 0 before the first generation
	ConversationTokens int // running token count of the consult conversation
	InsertedAt         time.Time
	UpdatedAt          time.Time
}

// QuizQuestion is a multiple choice question generated alongside subtopic content.
type QuizQuestion struct {
	Question      string
	Options       []string
	CorrectOption int
	Explanation   string
}

// Subtopic is one generated unit of a topic. Order is 1-based and unique per topic.
type Subtopic struct {
	Id          ID
	TopicId     ID
	Order       int
	Title       string
	Content     string
	IsPublished bool
	PublishedAt time.Time // zero until published
	Quiz        []QuizQuestion
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// ContentChunk is a typed fragment of a subtopic's content, stored with its
// embedding for retrieval when later subtopics are generated.
type ContentChunk struct {
	Id         ID
	SubtopicId ID
	Position   int // 0-based order within the subtopic
	Type       ChunkType
	Content    string
	Vector     []float32
	TokenCount int
	InsertedAt time.Time
}

// RelevantChunk is a retrieval hit: a chunk from an earlier published subtopic
// together with its similarity to the query.
type RelevantChunk struct {
	Content       string
	Type          ChunkType
	SubtopicTitle string
	SubtopicOrder int
	Similarity    float32 // 1 - cosine distance, in [-1, 1]
}

// Role identifies the author of a conversation message.
type Role int

const (
	RoleSystem Role = iota + 1
	RoleUser
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	}
	return "unknown"
}

// Message is one persisted turn of a session's consult conversation.
type Message struct {
	Id            ID
	SessionId     ID
	Role          Role
	Content       string
	SubtopicIndex int // -1 when the message is not tied to a subtopic
	TokenCount    int
	InsertedAt    time.Time
}

// Checkpoint is an immutable snapshot of workflow state for a thread.
type Checkpoint struct {
	ThreadId     string
	CheckpointId string
	State        []byte
	Metadata     map[string]string
	CreatedAt    time.Time
}

// Suggestions holds the model's improvement advice for a subtopic.
type Suggestions struct {
	Summary string
	Changes []string
}
