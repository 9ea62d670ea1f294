package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
)

// PreprocessOptions controls the clean-up applied before OCR.
type PreprocessOptions struct {
	// Contrast is the relative contrast change in [-1, 1]. Zero leaves contrast alone.
	Contrast float64

	// Sharpen applies a 3x3 sharpening kernel.
	Sharpen bool

	// MinHeight upscales images shorter than this many pixels. Tesseract
	// struggles with glyphs under ~20px, so small captures are enlarged.
	MinHeight int
}

// DefaultPreprocessOptions returns the settings used by the recognition pipeline.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Contrast:  0.2,
		Sharpen:   true,
		MinHeight: 300,
	}
}

// Preprocess converts img to a grayscale, contrast-boosted copy for OCR.
// The input image is not modified.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	out := effect.Grayscale(img)

	if opts.MinHeight > 0 && out.Bounds().Dy() > 0 && out.Bounds().Dy() < opts.MinHeight {
		factor := float64(opts.MinHeight) / float64(out.Bounds().Dy())
		w := int(float64(out.Bounds().Dx()) * factor)
		out = transform.Resize(out, w, opts.MinHeight, transform.Linear)
	}

	if opts.Contrast != 0 {
		out = adjust.Contrast(out, opts.Contrast)
	}

	if opts.Sharpen {
		out = effect.Sharpen(out)
	}

	return out
}

// ScaleFactor reports how much Preprocess enlarges an image of the given
// height, so that coordinates found on the preprocessed image can be mapped
// back to the original.
func (opts PreprocessOptions) ScaleFactor(height int) float64 {
	if opts.MinHeight > 0 && height > 0 && height < opts.MinHeight {
		return float64(opts.MinHeight) / float64(height)
	}
	return 1
}
