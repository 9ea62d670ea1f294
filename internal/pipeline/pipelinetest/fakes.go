// Package pipelinetest provides in-memory backends for exercising a
// pipeline.Service without Tesseract or network access.
package pipelinetest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/ironsheep/image-translate/internal/grammar"
	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/ocr"
	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/speech"
)

// Engine returns a fixed set of fragments and records what it was given.
type Engine struct {
	Fragments []ocr.Fragment
	Err       error

	mu        sync.Mutex
	Calls     int
	Languages []string
	Size      image.Point
}

func (e *Engine) Recognize(ctx context.Context, img image.Image, languages []string) (*ocr.Result, error) {
	e.mu.Lock()
	e.Calls++
	e.Languages = append([]string(nil), languages...)
	e.Size = img.Bounds().Size()
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return &ocr.Result{Fragments: append([]ocr.Fragment(nil), e.Fragments...), Languages: languages}, nil
}

// Translator prefixes text with the target code: "fr:hello".
type Translator struct {
	Err   error
	Calls int
}

func (t *Translator) Translate(_ context.Context, text, _, target string) (string, error) {
	t.Calls++
	if t.Err != nil {
		return "", t.Err
	}
	return target + ":" + text, nil
}

// Checker replaces every "teh" with "the".
type Checker struct {
	Err      error
	Language string
}

func (c *Checker) Check(_ context.Context, text, language string) (*grammar.Result, error) {
	c.Language = language
	if c.Err != nil {
		return nil, c.Err
	}
	var matches []grammar.Match
	runes := []rune(text)
	for i := 0; i+3 <= len(runes); i++ {
		if string(runes[i:i+3]) == "teh" {
			matches = append(matches, grammar.Match{Message: "typo", Offset: i, Length: 3, Replacements: []string{"the"}, RuleID: "TYPO"})
		}
	}
	return &grammar.Result{Original: text, Corrected: grammar.Correct(text, matches), Language: language, Matches: matches}, nil
}

// Synthesizer returns the text itself as "audio".
type Synthesizer struct {
	Err      error
	Language string
	Text     string
}

func (s *Synthesizer) Synthesize(_ context.Context, text, language string) (*speech.Audio, error) {
	s.Language, s.Text = language, text
	if s.Err != nil {
		return nil, s.Err
	}
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}
	return &speech.Audio{Data: []byte("MP3:" + text), MimeType: "audio/mpeg"}, nil
}

// Fakes bundles one of each backend.
type Fakes struct {
	Engine      *Engine
	Translator  *Translator
	Checker     *Checker
	Synthesizer *Synthesizer
}

// DefaultFragments are two English lines.
func DefaultFragments() []ocr.Fragment {
	return []ocr.Fragment{
		{Text: "The quick brown fox jumps over teh lazy dog", Confidence: 0.93, Box: imaging.QuadFromRect(image.Rect(4, 4, 60, 14))},
		{Text: "and runs into the forest before night falls", Confidence: 0.88, Box: imaging.QuadFromRect(image.Rect(4, 20, 60, 30))},
	}
}

// NewService builds a service over fresh fakes with preprocessing disabled.
func NewService(t *testing.T) (*pipeline.Service, *Fakes) {
	t.Helper()
	f := &Fakes{
		Engine:      &Engine{Fragments: DefaultFragments()},
		Translator:  &Translator{},
		Checker:     &Checker{},
		Synthesizer: &Synthesizer{},
	}
	svc, err := pipeline.New(pipeline.Deps{
		Engine:      f.Engine,
		Translator:  f.Translator,
		Checker:     f.Checker,
		Synthesizer: f.Synthesizer,
	}, pipeline.Options{BoxStyle: imaging.DefaultBoxStyle()})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	return svc, f
}

// PNG returns an encoded white image of the given size.
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// ErrBackend is a canned backend failure.
var ErrBackend = errors.New("backend unavailable")
