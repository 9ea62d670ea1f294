package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Quad is a quadrilateral bounding box: four corners in clockwise order
// starting at the top-left corner.
type Quad [4]Point

// QuadFromRect builds a quad from an axis-aligned rectangle.
func QuadFromRect(r image.Rectangle) Quad {
	return Quad{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// Bounds returns the smallest rectangle containing all four corners.
func (q Quad) Bounds() image.Rectangle {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// Scale multiplies every coordinate by 1/factor, mapping a quad found on an
// enlarged image back to the original. factor <= 0 is treated as 1.
func (q Quad) Scale(factor float64) Quad {
	if factor <= 0 || factor == 1 {
		return q
	}
	var out Quad
	for i, p := range q {
		out[i] = Point{
			X: int(math.Round(float64(p.X) / factor)),
			Y: int(math.Round(float64(p.Y) / factor)),
		}
	}
	return out
}

// Translate shifts every corner by (dx, dy).
func (q Quad) Translate(dx, dy int) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// BoxStyle controls how DrawBoxes renders outlines.
type BoxStyle struct {
	// Thickness is the outline width in pixels. Values < 1 become 1.
	Thickness float64

	// Color, when set, is used for every box instead of the palette.
	Color color.Color

	// Labels draws the 1-based box index next to each box.
	Labels bool
}

// DefaultBoxStyle returns a 2px palette-coloured outline with labels.
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{Thickness: 2, Labels: true}
}

// ParseColor parses "#RRGGBB" or "#RGB" into a color.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// Palette returns n visually distinct opaque colors. Hues are spread with
// the golden angle so that adjacent indices differ strongly.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := math.Mod(float64(i)*137.508, 360)
		out[i] = colorful.Hsv(hue, 0.85, 0.95).Clamped()
	}
	return out
}

// DrawBoxes draws the outline of every quad onto a copy of img and returns
// the copy.
//
// Parameters:
//   - img: The source image. Its bounds may start anywhere; the copy
//     always starts at (0, 0).
//   - boxes: Quads in img's coordinate space, as OCR reports them. They
//     are shifted by img.Bounds().Min before drawing.
//   - style: Outline thickness, an optional fixed color and whether to
//     tag each box with its 1-based index.
//
// Returns:
//   - *image.RGBA: A new image the size of img. img is never modified.
//
// # Colors
//
// Without style.Color every box gets its own Palette color, so adjacent
// boxes stay distinguishable. Index tags use the box color as background.
//
// # Clipping
//
// Corners outside the image are clipped by the rasterizer. A tag that would
// sit above the top edge is drawn inside the box instead; other tags are
// cropped to the image.
func DrawBoxes(img image.Image, boxes []Quad, style BoxStyle) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	if len(boxes) == 0 {
		return dst
	}

	thickness := style.Thickness
	if thickness < 1 {
		thickness = 1
	}

	colors := Palette(len(boxes))
	if style.Color != nil {
		for i := range colors {
			colors[i] = style.Color
		}
	}

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)

	for i, q := range boxes {
		// Quads are in source image coordinates.
		q = q.Translate(-bounds.Min.X, -bounds.Min.Y)

		dasher.Clear()
		dasher.SetStroke(fixed.Int26_6(thickness*64), 4*64, rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.Miter, nil, 0)
		dasher.Start(toFixed(q[0]))
		for _, p := range q[1:] {
			dasher.Line(toFixed(p))
		}
		dasher.Stop(true)
		dasher.SetColor(colors[i])
		dasher.Draw()

		if style.Labels {
			drawIndex(dst, q, i+1, colors[i])
		}
	}

	return dst
}

func toFixed(p Point) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.I(p.X), Y: fixed.I(p.Y)}
}

// drawIndex writes a small white-on-colour index tag above the quad's
// bounding rectangle, or inside it when the box touches the top edge.
// Rotated quads are labelled at their bounding corner, not at q[0].
func drawIndex(dst *image.RGBA, q Quad, index int, bg color.Color) {
	face := basicfont.Face7x13
	label := strconv.Itoa(index)

	tagW := len(label)*face.Advance + 4
	tagH := face.Height + 2

	corner := q.Bounds().Min
	x := corner.X
	y := corner.Y - tagH
	if y < 0 {
		y = corner.Y
	}
	tag := image.Rect(x, y, x+tagW, y+tagH).Intersect(dst.Bounds())
	if tag.Empty() {
		return
	}
	draw.Draw(dst, tag, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(y + face.Ascent + 1)},
	}
	d.DrawString(label)
}
