package conversation

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used to count message tokens.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

// TokenCounterFunc adapts a function to TokenCounter.
type TokenCounterFunc func(text string) int

// Count calls f(text).
func (f TokenCounterFunc) Count(text string) int { return f(text) }

// ApproximateCount estimates one token per four characters, rounding up.
func ApproximateCount(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// tiktokenCounter counts with a tiktoken encoding. The encoding is loaded on
// first use; if it cannot be loaded the counter falls back to ApproximateCount.
type tiktokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	logger   *slog.Logger
}

// NewTiktokenCounter returns a counter for the named encoding.
func NewTiktokenCounter(encoding string, logger *slog.Logger) TokenCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &tiktokenCounter{encoding: encoding, logger: logger}
}

func (c *tiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Warn("tiktoken encoding unavailable, approximating token counts",
				"encoding", c.encoding, "err", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return ApproximateCount(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
