package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-translate/internal/imaging"
)

// ErrNoLanguages is returned when recognition is requested without any language.
var ErrNoLanguages = errors.New("no OCR language selected")

// Fragment is one piece of recognized text with its location and confidence.
type Fragment struct {
	// Text is the recognized text content, trimmed of surrounding whitespace.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Box is the quadrilateral around this text in the recognized image.
	Box imaging.Quad `json:"box"`
}

// Result contains the fragments recognized in an image.
type Result struct {
	// Fragments are in reading order.
	Fragments []Fragment `json:"fragments"`

	// Languages are the Tesseract language names used for recognition.
	Languages []string `json:"languages"`
}

// Text joins the fragment texts with newlines, skipping empty fragments.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	lines := make([]string, 0, len(r.Fragments))
	for _, f := range r.Fragments {
		if f.Text == "" {
			continue
		}
		lines = append(lines, f.Text)
	}
	return strings.Join(lines, "\n")
}

// Engine recognizes text in images.
//
// languages are ISO 639-1 codes; at least one is required.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, languages []string) (*Result, error)
}

// TesseractEngine is an Engine backed by the Tesseract C library.
type TesseractEngine struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// Level selects the granularity of fragments. Defaults to text lines.
	Level gosseract.PageIteratorLevel
}

// NewTesseractEngine creates an engine producing one fragment per text line.
func NewTesseractEngine(tessdataPrefix string) *TesseractEngine {
	return &TesseractEngine{
		TessdataPrefix: tessdataPrefix,
		Level:          gosseract.RIL_TEXTLINE,
	}
}

type recognizeOutcome struct {
	result *Result
	err    error
}

// Recognize performs OCR on img and returns one fragment per text line.
//
// Parameters:
//   - ctx: Bounds the wait for Tesseract. Cancellation returns ctx.Err()
//     immediately; the native call finishes in the background.
//   - img: Any image.Image. It is handed to Tesseract as PNG bytes.
//   - languages: ISO 639-1 codes ("en", "ja"). Each is mapped to its
//     Tesseract data name ("eng", "jpn"); duplicates are dropped.
//
// Returns:
//   - *Result: Fragments with trimmed text, confidence in [0, 1] and a
//     quad in img's coordinates, plus the Tesseract names used.
//   - error: Non-nil for an unknown language, missing language data, an
//     unencodable image or a Tesseract failure.
//
// # Fragment Level
//
// Fragments come from the iterator level in e.Level, RIL_TEXTLINE by
// default. Fragments whose text is empty after trimming are dropped.
//
// # Concurrency
//
// Every call uses its own gosseract client, so one engine can serve
// concurrent requests.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, languages []string) (*Result, error) {
	names, err := TesseractCodes(languages)
	if err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	done := make(chan recognizeOutcome, 1)
	go func() {
		res, err := e.run(data, names)
		done <- recognizeOutcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.result, out.err
	}
}

func (e *TesseractEngine) run(data []byte, names []string) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(names...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(e.Level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	fragments := make([]Fragment, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			Text:       text,
			Confidence: float64(box.Confidence) / 100.0,
			Box:        imaging.QuadFromRect(box.Box),
		})
	}

	return &Result{
		Fragments: fragments,
		Languages: names,
	}, nil
}

// RecognizeRegion performs OCR on a rectangular region of img.
//
// The returned bounding boxes are adjusted to the original image coordinates.
// For example, if the region starts at (100, 50) and a line is detected at
// (10, 20) within the cropped region, the returned box starts at (110, 70).
func RecognizeRegion(ctx context.Context, engine Engine, img image.Image, region imaging.Region, languages []string) (*Result, error) {
	cropped, used, err := imaging.Crop(img, region)
	if err != nil {
		return nil, err
	}

	result, err := engine.Recognize(ctx, cropped, languages)
	if err != nil {
		return nil, err
	}

	for i := range result.Fragments {
		result.Fragments[i].Box = result.Fragments[i].Box.Translate(used.X1, used.Y1)
	}
	return result, nil
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Tessdata  string `json:"tessdata,omitempty"`
}

// GetInfo reports the linked Tesseract version.
func (e *TesseractEngine) GetInfo() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
		Tessdata:  e.TessdataPrefix,
	}
}
