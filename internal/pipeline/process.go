package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/speech"
)

// Request describes one pass over an uploaded image.
type Request struct {
	Image []byte

	// Languages are the selected image languages (names or codes).
	Languages []string

	// DefaultLanguage replaces an empty Languages selection.
	DefaultLanguage string

	// Target, when set, translates the extracted text into this language.
	Target string

	Detect  bool
	Grammar bool
	Speak   bool
	Boxes   bool
}

// Report is the outcome of Process. Optional steps that failed carry their
// fallback message; SpeechError and AnnotateError hold the reason when audio
// or the annotated image are missing.
type Report struct {
	Extraction *Extraction `json:"extraction"`

	// Language is the detected display name, or "Unknown".
	Language string `json:"language,omitempty"`

	Translation string `json:"translation,omitempty"`
	Corrected   string `json:"corrected,omitempty"`

	Audio       *speech.Audio `json:"audio,omitempty"`
	SpeechError string        `json:"speech_error,omitempty"`

	Annotated     *imaging.EncodedImage `json:"annotated,omitempty"`
	AnnotateError string                `json:"annotate_error,omitempty"`
}

// Process decodes the image once and runs every requested step over it.
//
// Parameters:
//   - ctx: Passed to OCR and every network backend.
//   - req: The encoded image plus the steps to run. Languages fall back to
//     req.DefaultLanguage, then to the configured OCR default.
//
// Returns:
//   - *Report: The extraction plus one field per requested step.
//   - error: Non-nil only when language resolution, decoding or OCR fails.
//
// # Step Order
//
// OCR runs first. Detection runs when Detect, Grammar or Speak is set, and
// a known result becomes the grammar and speech language. Grammar output
// replaces the text for translation; speech reads the translation when
// there is one. Boxes are drawn on the decoded image.
//
// # Partial Failures
//
// Optional steps never abort the request. Grammar and translation report
// GrammarFailed and TranslationFailed; speech and annotation fill
// SpeechError and AnnotateError. When OCR finds no text, grammar,
// translation and speech are skipped and their fields stay empty.
func (s *Service) Process(ctx context.Context, req Request) (report *Report, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("process", start, err) }()

	langs, err := s.ResolveLanguages(req.Languages, req.DefaultLanguage)
	if err != nil {
		return nil, err
	}

	img, _, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, err
	}

	ext, err := s.RecognizeImage(ctx, img, langs)
	if err != nil {
		s.log.Error("process: OCR failed", "error", err, "languages", langs)
		return nil, err
	}
	report = &Report{Extraction: ext}

	// Detection also picks the grammar and speech language.
	spoken := langs[0]
	if req.Detect || req.Grammar || req.Speak {
		d := s.Detect(ext.Text)
		if req.Detect {
			report.Language = d.Name
		}
		if d.Known() {
			spoken = d.Code
		}
	}

	// Grammar, translation and speech are skipped when no text was found.
	text := ext.Text
	empty := strings.TrimSpace(text) == ""
	if req.Grammar && !empty {
		report.Corrected = s.CheckGrammar(ctx, text, spoken)
		if report.Corrected != GrammarFailed {
			text = report.Corrected
		}
	}

	if req.Target != "" && !empty {
		report.Translation = s.Translate(ctx, text, req.Target)
	}

	if req.Speak && !empty {
		sayText, sayLang := text, spoken
		if report.Translation != "" && report.Translation != TranslationFailed {
			if code, lerr := s.LanguageCode(req.Target); lerr == nil {
				sayText, sayLang = report.Translation, code
			}
		}
		audio, serr := s.Speak(ctx, sayText, sayLang)
		if serr != nil {
			report.SpeechError = fmt.Sprintf("Speech synthesis failed: %v", serr)
		} else {
			report.Audio = audio
		}
	}

	if req.Boxes {
		annotated, aerr := s.AnnotateImage(img, ext, s.opts.BoxStyle)
		if aerr != nil {
			report.AnnotateError = aerr.Error()
		} else {
			report.Annotated = annotated
		}
	}

	s.log.Info("process: done", "languages", langs, "fragments", len(ext.Fragments),
		"target", req.Target, "duration", time.Since(start))
	return report, nil
}
