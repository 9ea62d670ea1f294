// Package pipeline coordinates recognition, language detection, translation,
// grammar checking and speech for the web and MCP front ends.
//
// Operations that end up in front of a user come in two flavours: a raw form
// returning (value, error) and a display form that logs the error and
// substitutes a fixed fallback message.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/ironsheep/image-translate/internal/config"
	"github.com/ironsheep/image-translate/internal/grammar"
	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/langdetect"
	"github.com/ironsheep/image-translate/internal/ocr"
	"github.com/ironsheep/image-translate/internal/speech"
	"github.com/ironsheep/image-translate/internal/translate"
)

// Fallback messages shown in place of a failed result.
const (
	TranslationFailed = "Translation failed."
	GrammarFailed     = "Grammar check failed."
)

// ErrUnknownLanguage is returned for a language missing from the table.
var ErrUnknownLanguage = errors.New("unknown language")

// ErrUnavailable is returned when an optional backend is not configured.
var ErrUnavailable = errors.New("backend not configured")

// Options tune the service.
type Options struct {
	// Languages is the ordered display name / code table.
	Languages config.LanguageTable

	// DefaultLanguage is the OCR language used when none is selected.
	DefaultLanguage string

	// TargetLanguage is the translation target used when none is given.
	TargetLanguage string

	Preprocess        bool
	PreprocessOptions imaging.PreprocessOptions

	// MaxSide downsizes larger images before OCR (0 = never).
	MaxSide int

	OCRTimeout time.Duration
	BoxStyle   imaging.BoxStyle
}

// OptionsFromConfig derives service options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Languages:         cfg.Languages,
		DefaultLanguage:   cfg.OCR.DefaultLanguage,
		TargetLanguage:    cfg.Translation.DefaultLanguage,
		Preprocess:        cfg.OCR.Preprocess,
		PreprocessOptions: imaging.DefaultPreprocessOptions(),
		MaxSide:           cfg.OCR.MaxSide,
		OCRTimeout:        cfg.OCR.Timeout,
		BoxStyle:          imaging.DefaultBoxStyle(),
	}
}

// Deps are the backends the service drives. Checker and Synthesizer may be
// nil, in which case the matching operations report ErrUnavailable.
type Deps struct {
	Engine      ocr.Engine
	Translator  translate.Translator
	Checker     grammar.Checker
	Synthesizer speech.Synthesizer
	Metrics     *Metrics
	Logger      *slog.Logger
}

// Service runs the image text workflow.
type Service struct {
	engine      ocr.Engine
	detector    *langdetect.Detector
	translator  translate.Translator
	checker     grammar.Checker
	synthesizer speech.Synthesizer
	metrics     *Metrics
	log         *slog.Logger
	opts        Options
}

// New creates a service. Engine and Translator are required.
func New(deps Deps, opts Options) (*Service, error) {
	if deps.Engine == nil {
		return nil, errors.New("pipeline: OCR engine required")
	}
	if deps.Translator == nil {
		return nil, errors.New("pipeline: translator required")
	}
	if len(opts.Languages) == 0 {
		opts.Languages = config.DefaultLanguages()
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = opts.Languages[0].Name
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = opts.Languages[0].Name
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		engine:      deps.Engine,
		detector:    langdetect.New(opts.Languages.Codes()),
		translator:  deps.Translator,
		checker:     deps.Checker,
		synthesizer: deps.Synthesizer,
		metrics:     deps.Metrics,
		log:         logger,
		opts:        opts,
	}, nil
}

// Languages returns the language table.
func (s *Service) Languages() config.LanguageTable {
	return s.opts.Languages
}

// DefaultLanguage returns the OCR fallback language name.
func (s *Service) DefaultLanguage() string {
	return s.opts.DefaultLanguage
}

// TargetLanguage returns the default translation target name.
func (s *Service) TargetLanguage() string {
	return s.opts.TargetLanguage
}

// LanguageCode resolves a display name or code to a code.
func (s *Service) LanguageCode(nameOrCode string) (string, error) {
	if code, ok := s.opts.Languages.Code(nameOrCode); ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, nameOrCode)
}

// LanguageName resolves a code (or name) to its display name.
func (s *Service) LanguageName(code string) (string, bool) {
	return s.opts.Languages.Name(code)
}

// ResolveLanguages maps the selected languages to codes. An empty selection
// falls back to defaultLanguage (or the service default when that is empty).
func (s *Service) ResolveLanguages(selected []string, defaultLanguage string) ([]string, error) {
	names := make([]string, 0, len(selected))
	for _, n := range selected {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		if strings.TrimSpace(defaultLanguage) == "" {
			defaultLanguage = s.opts.DefaultLanguage
		}
		names = []string{defaultLanguage}
	}

	seen := make(map[string]bool, len(names))
	codes := make([]string, 0, len(names))
	for _, n := range names {
		code, err := s.LanguageCode(n)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// Extraction is the text found in an image.
type Extraction struct {
	// Text is the fragment texts joined by newlines.
	Text string `json:"text"`

	// Fragments carry boxes in the coordinates of the decoded image.
	Fragments []ocr.Fragment `json:"fragments"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Languages are the ISO codes recognition ran with.
	Languages []string `json:"languages"`
}

// Boxes returns the fragment bounding boxes.
func (e *Extraction) Boxes() []imaging.Quad {
	boxes := make([]imaging.Quad, len(e.Fragments))
	for i, f := range e.Fragments {
		boxes[i] = f.Box
	}
	return boxes
}

// Recognize decodes data and extracts its text in the given languages.
func (s *Service) Recognize(ctx context.Context, data []byte, languages []string) (ext *Extraction, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("recognize", start, err) }()

	img, format, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	ext, err = s.RecognizeImage(ctx, img, languages)
	if err != nil {
		s.log.Error("recognize: OCR failed", "error", err, "format", format, "languages", languages)
		return nil, err
	}
	s.log.Info("recognize: done", "format", format, "languages", ext.Languages,
		"fragments", len(ext.Fragments), "duration", time.Since(start))
	return ext, nil
}

// RecognizeImage extracts text from an already decoded image.
func (s *Service) RecognizeImage(ctx context.Context, img image.Image, languages []string) (*Extraction, error) {
	res, err := s.preparedEngine().Recognize(ctx, img, languages)
	if err != nil {
		return nil, err
	}
	return s.extraction(img.Bounds(), res, languages), nil
}

// RecognizeRegion extracts text from a rectangle of img. Boxes are reported
// in the coordinates of img.
func (s *Service) RecognizeRegion(ctx context.Context, img image.Image, region imaging.Region, languages []string) (*Extraction, error) {
	res, err := ocr.RecognizeRegion(ctx, s.preparedEngine(), img, region, languages)
	if err != nil {
		return nil, err
	}
	return s.extraction(img.Bounds(), res, languages), nil
}

func (s *Service) extraction(bounds image.Rectangle, res *ocr.Result, languages []string) *Extraction {
	s.metrics.observeFragments(len(res.Fragments))
	return &Extraction{
		Text:      res.Text(),
		Fragments: res.Fragments,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Languages: languages,
	}
}

// Annotate draws the extraction's boxes over the image in data.
func (s *Service) Annotate(data []byte, ext *Extraction) (*imaging.EncodedImage, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.AnnotateImage(img, ext, s.opts.BoxStyle)
}

// AnnotateImage draws the extraction's boxes over img in the given style.
func (s *Service) AnnotateImage(img image.Image, ext *Extraction, style imaging.BoxStyle) (*imaging.EncodedImage, error) {
	var boxes []imaging.Quad
	if ext != nil {
		boxes = ext.Boxes()
	}
	out, err := imaging.EncodeBase64PNG(imaging.DrawBoxes(img, boxes, style))
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	return out, nil
}

// Detect identifies the language of text.
func (s *Service) Detect(text string) langdetect.Detection {
	start := time.Now()
	d := s.detector.Detect(text)
	var err error
	if !d.Known() {
		err = errors.New("undetermined")
	}
	s.metrics.observe("detect", start, err)

	if name, ok := s.LanguageName(d.Code); ok {
		d.Name = name
	}
	return d
}

// DetectLanguage returns the display name of text's language, or "Unknown".
func (s *Service) DetectLanguage(text string) string {
	return s.Detect(text).Name
}

// TranslateText translates text into target (a display name or code).
func (s *Service) TranslateText(ctx context.Context, text, target string) (out string, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("translate", start, err) }()

	if strings.TrimSpace(target) == "" {
		target = s.opts.TargetLanguage
	}
	code, err := s.LanguageCode(target)
	if err != nil {
		return "", err
	}
	return s.translator.Translate(ctx, text, translate.Auto, code)
}

// Translate is TranslateText with the failure fallback applied.
func (s *Service) Translate(ctx context.Context, text, target string) string {
	out, err := s.TranslateText(ctx, text, target)
	if err != nil {
		s.log.Error("translate: failed", "error", err, "target", target)
		return TranslationFailed
	}
	return out
}

// Grammar checks text. language may be a display name, a code or empty
// (automatic).
func (s *Service) Grammar(ctx context.Context, text, language string) (res *grammar.Result, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("grammar", start, err) }()

	if s.checker == nil {
		return nil, fmt.Errorf("grammar: %w", ErrUnavailable)
	}
	lang := "auto"
	if strings.TrimSpace(language) != "" && !strings.EqualFold(language, langdetect.UnknownName) {
		if code, lerr := s.LanguageCode(language); lerr == nil {
			lang = code
		}
	}
	return s.checker.Check(ctx, text, lang)
}

// CheckGrammar returns the corrected text, or the fallback on failure.
func (s *Service) CheckGrammar(ctx context.Context, text, language string) string {
	res, err := s.Grammar(ctx, text, language)
	if err != nil {
		s.log.Error("grammar: failed", "error", err, "language", language)
		return GrammarFailed
	}
	return res.Corrected
}

// Speak synthesizes text spoken in language (a display name or code).
func (s *Service) Speak(ctx context.Context, text, language string) (audio *speech.Audio, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("speech", start, err) }()

	if s.synthesizer == nil {
		return nil, fmt.Errorf("speech: %w", ErrUnavailable)
	}
	code, lerr := s.LanguageCode(language)
	if lerr != nil {
		code = strings.ToLower(strings.TrimSpace(language))
	}
	audio, err = s.synthesizer.Synthesize(ctx, text, code)
	if err != nil {
		s.log.Error("speech: failed", "error", err, "language", code)
		return nil, err
	}
	return audio, nil
}
