package heat

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Field is an intensity raster with values in [0,255].
type Field struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewField creates an all-zero field of the given size.
func NewField(width, height int) *Field {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Field{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromRows builds a field from row-major intensity rows. All rows must have
// the same length.
func FromRows(rows [][]uint8) (*Field, error) {
	if len(rows) == 0 {
		return NewField(0, 0), nil
	}
	width := len(rows[0])
	f := NewField(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), width)
		}
		copy(f.Pix[y*width:(y+1)*width], row)
	}
	return f, nil
}

// FromImage converts an image into a field.
//
// Grayscale images are copied directly. Every other color model is converted
// to luminance (ITU-R BT.601 weights) first.
func FromImage(img image.Image) *Field {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	f := NewField(width, height)

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			start := (y+bounds.Min.Y-gray.Rect.Min.Y)*gray.Stride + (bounds.Min.X - gray.Rect.Min.X)
			copy(f.Pix[y*width:(y+1)*width], gray.Pix[start:start+width])
		}
		return f
	}

	// Grayscale returns an NRGBA image with R == G == B.
	luma := imaging.Grayscale(img)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Pix[y*width+x] = luma.Pix[y*luma.Stride+x*4]
		}
	}
	return f
}

// Image returns the field as a grayscale image.
func (f *Field) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Pix)
	return img
}

// InBounds reports whether (x, y) lies inside the field.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// At returns the intensity at (x, y). Out-of-bounds coordinates read as 0.
func (f *Field) At(x, y int) uint8 {
	if !f.InBounds(x, y) {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Set stores an intensity at (x, y). Out-of-bounds writes are ignored.
func (f *Field) Set(x, y int, v uint8) {
	if !f.InBounds(x, y) {
		return
	}
	f.Pix[y*f.Width+x] = v
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := &Field{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Max returns the position and value of the hottest cell. Ties resolve to the
// first cell in row-major order. An empty field reports (0,0) with value 0.
func (f *Field) Max() (image.Point, uint8) {
	var maxIdx int
	var maxVal uint8
	for i, v := range f.Pix {
		if v > maxVal {
			maxVal = v
			maxIdx = i
			if v == 255 {
				break
			}
		}
	}
	if f.Width == 0 {
		return image.Point{}, 0
	}
	return image.Point{X: maxIdx % f.Width, Y: maxIdx / f.Width}, maxVal
}

// IsZero reports whether every cell is 0.
func (f *Field) IsZero() bool {
	for _, v := range f.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Energy returns the sum of all intensities.
func (f *Field) Energy() int {
	total := 0
	for _, v := range f.Pix {
		total += int(v)
	}
	return total
}

// Floats returns the intensities as float64 values in row-major order.
func (f *Field) Floats() []float64 {
	out := make([]float64, len(f.Pix))
	for i, v := range f.Pix {
		out[i] = float64(v)
	}
	return out
}

// SameShape reports whether two fields have identical dimensions.
func (f *Field) SameShape(other *Field) bool {
	return f.Width == other.Width && f.Height == other.Height
}

// NeighboursInRange returns all points whose Manhattan distance from p lies in
// [1, distance], ordered by distance. Points outside any raster are included;
// callers clip them against their own bounds.
func NeighboursInRange(p image.Point, distance int) []image.Point {
	var out []image.Point
	for d := 1; d <= distance; d++ {
		for x := p.X - d; x <= p.X+d; x++ {
			for y := p.Y - d; y <= p.Y+d; y++ {
				if abs(p.X-x)+abs(p.Y-y) == d {
					out = append(out, image.Point{X: x, Y: y})
				}
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
