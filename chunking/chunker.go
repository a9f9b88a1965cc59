package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/syllabus/core"
	"github.com/yuin/goldmark"
)

const (
	// DefaultMinParagraphLength is the length a paragraph must exceed to become a chunk.
	DefaultMinParagraphLength = 50
)

var (
	definitionCues = []*regexp.Regexp{
		regexp.MustCompile(`(?is)\S.*?\b(?:is|are|refers to|means|defined as)\b.+`),
		regexp.MustCompile(`(?i)\b(?:definition|what is|what are)\b`),
	}
	exampleCues = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:example|for example|consider|for instance|let's say)\b`),
		regexp.MustCompile(`(?i)\b(?:imagine|suppose|think about)\b`),
	}
	procedureCues = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:step \d+|first|second|third|next|finally|to do this)\b`),
		regexp.MustCompile(`(?i)\b(?:the process|the method|algorithm|procedure)\b`),
	}
	applicationPhrases = []string{
		"used for", "applies to", "application", "in practice", "real world",
		"useful when", "helps with", "solves", "addresses",
	}
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// Chunker splits content into typed chunks.
type Chunker struct {
	minLength int
	md        goldmark.Markdown
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMinParagraphLength sets the length a paragraph must exceed to be kept.
func WithMinParagraphLength(n int) Option {
	return func(c *Chunker) {
		c.minLength = n
	}
}

// New creates a Chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		minLength: DefaultMinParagraphLength,
		md:        goldmark.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultChunker = New()

// Chunk splits content with the default settings.
func Chunk(content, title string) []*core.ContentChunk {
	return defaultChunker.Chunk(content, title)
}

// Chunk splits content into paragraphs and classifies each one.
// The result always contains at least one concept chunk.
func (c *Chunker) Chunk(content, title string) []*core.ContentChunk {
	var chunks []*core.ContentChunk
	hasConcept := false

	for _, paragraph := range paragraphBreak.Split(content, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if utf8.RuneCountInString(paragraph) <= c.minLength {
			continue
		}
		typ := c.Classify(paragraph)
		if typ == core.ChunkTypeConcept {
			hasConcept = true
		}
		chunks = append(chunks, newChunk(typ, paragraph))
	}

	if !hasConcept {
		chunks = append(chunks, newChunk(core.ChunkTypeConcept, fmt.Sprintf("Core concept: %s", title)))
	}
	return chunks
}

// Classify returns the chunk type of a single paragraph.
func (c *Chunker) Classify(paragraph string) core.ChunkType {
	plain := PlainText(c.md, paragraph)

	switch {
	case matchAny(definitionCues, plain):
		return core.ChunkTypeDefinition
	case matchAny(exampleCues, plain):
		return core.ChunkTypeExample
	case matchAny(procedureCues, plain):
		return core.ChunkTypeProcedure
	}

	lower := strings.ToLower(plain)
	for _, phrase := range applicationPhrases {
		if strings.Contains(lower, phrase) {
			return core.ChunkTypeApplication
		}
	}
	return core.ChunkTypeConcept
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func newChunk(typ core.ChunkType, content string) *core.ContentChunk {
	return &core.ContentChunk{
		Type:       typ,
		Content:    content,
		TokenCount: len(strings.Fields(content)),
	}
}
