// Package preview renders sequences as PNG contact sheets so a clip can be
// checked without a renderer attached.
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/stream"
)

const dotRadius = 1

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	gridLine   = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
)

// Region hues for facial landmarks.
var regionHue = map[string]float64{
	"jaw":   40,
	"brow":  90,
	"nose":  160,
	"eye":   250,
	"mouth": 10,
	"other": 300,
}

// ContactSheet draws every frame of seq into a grid of square cells.
func ContactSheet(seq *stream.Sequence, cellSize int, columns int) (*image.RGBA, error) {
	if seq.Len() == 0 {
		return nil, errors.New("preview: empty sequence")
	}
	if cellSize < 8 || columns < 1 {
		return nil, errors.New("preview: cell size must be at least 8 and columns at least 1")
	}
	if columns > seq.Len() {
		columns = seq.Len()
	}

	rows := (seq.Len() + columns - 1) / columns
	img := image.NewRGBA(image.Rect(0, 0, columns*cellSize, rows*cellSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	palette := pointColours(len(seq.Frames[0].Landmarks))
	for i, f := range seq.Frames {
		origin := image.Pt((i%columns)*cellSize, (i/columns)*cellSize)
		drawBorder(img, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(cellSize, cellSize))})
		for j, p := range f.Landmarks {
			x := origin.X + int(p.X*float64(cellSize-1))
			y := origin.Y + int(p.Y*float64(cellSize-1))
			drawDot(img, x, y, palette[j%len(palette)])
		}
	}

	return img, nil
}

// Encode writes a contact sheet of seq to w as PNG.
func Encode(w io.Writer, seq *stream.Sequence, cellSize int, columns int) error {
	img, err := ContactSheet(seq, cellSize, columns)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// pointColours colours facial rigs by region and any other rig by spreading
// hues around the wheel.
func pointColours(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		var c colorful.Color
		if n == motion.NumFacialLandmarks {
			c = colorful.Hcl(regionHue[motion.Region(i)], 0.8, 0.5)
		} else {
			c = colorful.Hsv(float64(i)*360/float64(n), 0.9, 0.8)
		}
		out[i] = c.Clamped()
	}
	return out
}

func drawBorder(img *image.RGBA, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, gridLine)
		img.Set(x, r.Max.Y-1, gridLine)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, gridLine)
		img.Set(r.Max.X-1, y, gridLine)
	}
}

func drawDot(img *image.RGBA, cx, cy int, c color.Color) {
	for y := cy - dotRadius; y <= cy+dotRadius; y++ {
		for x := cx - dotRadius; x <= cx+dotRadius; x++ {
			img.Set(x, y, c)
		}
	}
}
