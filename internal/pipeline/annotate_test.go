package pipeline_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/ocr"
	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/pipeline/pipelinetest"
)

func decodeAnnotated(t *testing.T, enc *imaging.EncodedImage) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func TestAnnotateImage_NonZeroOrigin(t *testing.T) {
	svc, _ := pipelinetest.NewService(t)

	full := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(full, full.Bounds(), image.White, image.Point{}, draw.Src)
	sub := full.SubImage(image.Rect(40, 40, 100, 100))

	// Boxes are in the coordinates of the image they were recognized in.
	ext := &pipeline.Extraction{Fragments: []ocr.Fragment{
		{Text: "x", Box: imaging.QuadFromRect(image.Rect(60, 60, 80, 80))},
	}}
	style := imaging.BoxStyle{Thickness: 2, Color: color.RGBA{255, 0, 0, 255}}

	enc, err := svc.AnnotateImage(sub, ext, style)
	if err != nil {
		t.Fatalf("AnnotateImage failed: %v", err)
	}
	if enc.Width != 60 || enc.Height != 60 {
		t.Fatalf("size: got %dx%d, want 60x60", enc.Width, enc.Height)
	}

	out := decodeAnnotated(t, enc)
	if !isRed(out.At(20, 30)) {
		t.Error("left edge of the box should be drawn at x=20 in the output")
	}
	if isRed(out.At(0, 0)) || isRed(out.At(1, 10)) {
		t.Error("box drawn at a doubly shifted position")
	}
}
