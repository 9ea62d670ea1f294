package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// createPatternImage creates a 4-quadrant pattern: red, green, blue, white.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, used, err := Crop(img, Region{X1: 50, Y1: 0, X2: 100, Y2: 50})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if cropped.Bounds().Dx() != 50 || cropped.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
	if used != (Region{X1: 50, Y1: 0, X2: 100, Y2: 50}) {
		t.Errorf("used region: got %+v", used)
	}

	// Top-right quadrant is green
	r, g, b, _ := cropped.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("cropped pixel: got (%d,%d,%d), want (0,255,0)", r>>8, g>>8, b>>8)
	}
}

func TestCrop_ClampsToBounds(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, used, err := Crop(img, Region{X1: 80, Y1: 80, X2: 150, Y2: 150})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Bounds().Dx() != 20 || cropped.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %dx%d, want 20x20", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
	if used.X2 != 100 || used.Y2 != 100 {
		t.Errorf("used region not clamped: %+v", used)
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name   string
		region Region
	}{
		{"inverted x", Region{X1: 50, Y1: 0, X2: 10, Y2: 50}},
		{"zero height", Region{X1: 0, Y1: 10, X2: 50, Y2: 10}},
		{"outside", Region{X1: 200, Y1: 200, X2: 300, Y2: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Crop(img, tt.region); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFitWithin(t *testing.T) {
	img := createPatternImage(400, 200)

	fitted := FitWithin(img, 100)
	if fitted.Bounds().Dx() != 100 || fitted.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", fitted.Bounds().Dx(), fitted.Bounds().Dy())
	}

	if FitWithin(img, 1000) != image.Image(img) {
		t.Error("small image should be returned unchanged")
	}
	if FitWithin(img, 0) != image.Image(img) {
		t.Error("maxSide 0 should disable scaling")
	}
}

func TestEncodeBase64PNG(t *testing.T) {
	img := createPatternImage(30, 20)

	enc, err := EncodeBase64PNG(img)
	if err != nil {
		t.Fatalf("EncodeBase64PNG failed: %v", err)
	}
	if enc.Width != 30 || enc.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 30x20", enc.Width, enc.Height)
	}
	if enc.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", enc.MimeType)
	}
	if !strings.HasPrefix(enc.DataURI(), "data:image/png;base64,") {
		t.Errorf("DataURI prefix: got %s", enc.DataURI()[:30])
	}

	decoded, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(strings.NewReader(string(decoded))); err != nil {
		t.Errorf("payload is not a PNG: %v", err)
	}
}
