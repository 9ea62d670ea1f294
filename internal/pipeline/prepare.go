package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/ocr"
)

// preparingEngine wraps the OCR engine with the service's downscaling,
// preprocessing and timeout. Boxes are mapped back to the coordinates of the
// image it was given.
type preparingEngine struct {
	next       ocr.Engine
	maxSide    int
	preprocess bool
	opts       imaging.PreprocessOptions
	timeout    time.Duration
}

func (s *Service) preparedEngine() ocr.Engine {
	return &preparingEngine{
		next:       s.engine,
		maxSide:    s.opts.MaxSide,
		preprocess: s.opts.Preprocess,
		opts:       s.opts.PreprocessOptions,
		timeout:    s.opts.OCRTimeout,
	}
}

func (p *preparingEngine) Recognize(ctx context.Context, img image.Image, languages []string) (*ocr.Result, error) {
	if len(languages) == 0 {
		return nil, ocr.ErrNoLanguages
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.New("recognize text: empty image")
	}

	work := imaging.FitWithin(img, p.maxSide)
	scale := float64(work.Bounds().Dx()) / float64(bounds.Dx())
	if p.preprocess {
		scale *= p.opts.ScaleFactor(work.Bounds().Dy())
		work = imaging.Preprocess(work, p.opts)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.next.Recognize(ctx, work, languages)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	out := &ocr.Result{Languages: res.Languages, Fragments: make([]ocr.Fragment, len(res.Fragments))}
	for i, f := range res.Fragments {
		f.Box = f.Box.Scale(scale).Translate(bounds.Min.X, bounds.Min.Y)
		out.Fragments[i] = f
	}
	return out, nil
}
