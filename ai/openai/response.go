package openai

import (
	"regexp"
	"strings"
)

// unquotedKey matches an object key that lost its opening quote, e.g. `, type":`.
var unquotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z_ ]*?)":`)

// cleanJSON prepares a model response for json.Unmarshal: it drops a
// surrounding Markdown code fence, discards prose around the outermost
// object and restores missing opening quotes on keys.
func cleanJSON(text string) string {
	s := stripCodeFence(text)
	if start := strings.IndexByte(s, '{'); start >= 0 {
		if end := strings.LastIndexByte(s, '}'); end > start {
			s = s[start : end+1]
		}
	}
	return unquotedKey.ReplaceAllString(s, `$1"$2":`)
}

// stripCodeFence removes a surrounding Markdown code fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
