package embedding

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MaxTextLength is the number of characters kept from a text before embedding.
	MaxTextLength = 30000

	// TruncationMarker is appended to texts cut at MaxTextLength.
	TruncationMarker = "\n\n[CONTENT TRUNCATED FOR EMBEDDING]"
)

var (
	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(data:image[^)]+\)`)
	htmlImage     = regexp.MustCompile(`<img[^>]*src="data:image[^"]*"[^>]*>`)
	dataURL       = regexp.MustCompile(`data:image/[^;]+;base64,[A-Za-z0-9+/=]+`)
)

// Clean removes inline image payloads and truncates text that would exceed the
// embedding model's input limit. It reports whether the text was truncated.
func Clean(text string) (string, bool) {
	if text == "" {
		return text, false
	}

	text = markdownImage.ReplaceAllString(text, "[IMAGE]")
	text = htmlImage.ReplaceAllString(text, "[IMAGE]")
	text = dataURL.ReplaceAllString(text, "[IMAGE_DATA]")

	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:MaxTextLength]) + TruncationMarker, true
}
