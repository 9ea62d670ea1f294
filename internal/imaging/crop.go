package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangular area in pixel coordinates.
// (X1,Y1) is inclusive, (X2,Y2) is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Crop extracts a region from an image. The region is clamped to the image
// bounds; a region that is empty after clamping is an error.
//
// The returned image always starts at (0,0).
func Crop(img image.Image, region Region) (image.Image, Region, error) {
	if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
		return nil, Region{}, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	clamped := region.Rect().Intersect(img.Bounds())
	if clamped.Empty() {
		b := img.Bounds()
		return nil, Region{}, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			region.X1, region.Y1, region.X2, region.Y2, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	}

	used := Region{X1: clamped.Min.X, Y1: clamped.Min.Y, X2: clamped.Max.X, Y2: clamped.Max.Y}
	return imaging.Crop(img, clamped), used, nil
}

// FitWithin downscales an image so that neither side exceeds maxSide,
// preserving the aspect ratio. Images already small enough are returned
// unchanged, as is everything when maxSide <= 0.
func FitWithin(img image.Image, maxSide int) image.Image {
	if maxSide <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
