// Package translate converts text between natural languages through
// external translation services.
package translate

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// Auto asks the backend to detect the source language.
const Auto = "auto"

// DefaultChunkSize is the largest piece of text sent to a backend in one
// request, in runes. Google's web endpoint rejects longer queries.
const DefaultChunkSize = 5000

// ErrUnsupportedLanguage is returned for an empty or malformed target language.
var ErrUnsupportedLanguage = errors.New("unsupported target language")

// Translator translates text. source may be Auto.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// normalize validates the language pair and reports whether translation can
// be skipped entirely, in which case text is returned as is.
func normalize(text, source, target string) (string, string, bool, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	target = strings.ToLower(strings.TrimSpace(target))
	if source == "" {
		source = Auto
	}
	if target == "" || target == Auto {
		return "", "", false, ErrUnsupportedLanguage
	}
	if strings.TrimSpace(text) == "" || source == target {
		return source, target, true, nil
	}
	return source, target, false, nil
}

// splitChunks splits text into pieces of at most limit runes, cutting at the
// last whitespace before the limit when there is one. Joining the chunks
// yields the original text.
func splitChunks(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if isSpace(runes[i]) {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
