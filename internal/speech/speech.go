// Package speech turns text into spoken audio.
package speech

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when there is nothing to speak.
var ErrEmptyText = errors.New("no text to speak")

// Audio is a synthesized clip.
type Audio struct {
	// Data is base64-encoded in JSON.
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Synthesizer converts text in language (ISO 639-1) to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (*Audio, error)
}

// splitSentences breaks text into pieces of at most limit runes, preferring
// sentence punctuation, then whitespace, then a hard cut. Pieces are trimmed
// and blank pieces are dropped.
func splitSentences(text string, limit int) []string {
	runes := []rune(strings.TrimSpace(text))
	var parts []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			parts = appendPart(parts, string(runes))
			break
		}

		cut := -1
		for i := limit; i > 0; i-- {
			if strings.ContainsRune(".!?;:,。！？、\n", runes[i-1]) {
				cut = i
				break
			}
		}
		if cut < 0 {
			for i := limit; i > 0; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
		}
		if cut <= 0 {
			cut = limit
		}

		parts = appendPart(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}

func appendPart(parts []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return parts
	}
	return append(parts, s)
}
