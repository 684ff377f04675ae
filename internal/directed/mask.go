// Package directed builds and combines directed masks: vector fields of
// saccade flow over a stimulus.
package directed

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when masks of different sizes are combined.
var ErrShapeMismatch = errors.New("directed mask shape mismatch")

// Mask is a grid of 2-component vectors describing saccade flow.
//
// Data is laid out as (y, x, component), so the vector of cell (x, y) is
// Data[(y*Width+x)*2] and Data[(y*Width+x)*2+1].
type Mask struct {
	Width  int
	Height int
	Data   []float64
}

// NewMask creates a zero mask of the given size.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Data: make([]float64, width*height*2)}
}

// At returns the vector at (x, y).
func (m *Mask) At(x, y int) (vx, vy float64) {
	i := (y*m.Width + x) * 2
	return m.Data[i], m.Data[i+1]
}

// Add accumulates (vx, vy) into cell (x, y).
func (m *Mask) Add(x, y int, vx, vy float64) {
	i := (y*m.Width + x) * 2
	m.Data[i] += vx
	m.Data[i+1] += vy
}

// SameShape reports whether two masks can be combined.
func (m *Mask) SameShape(other *Mask) bool {
	return m.Width == other.Width && m.Height == other.Height && len(m.Data) == len(other.Data)
}

// IsZero reports whether every component is zero.
func (m *Mask) IsZero() bool {
	for _, v := range m.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Data: make([]float64, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// Components splits the mask into its x and y grids, each row-major.
func (m *Mask) Components() (xs, ys []float64) {
	n := m.Width * m.Height
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = m.Data[2*i]
		ys[i] = m.Data[2*i+1]
	}
	return xs, ys
}

// Combine returns the elementwise sum of masks as a new mask. All masks must
// share one shape; inputs are never modified.
func Combine(masks ...*Mask) (*Mask, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", ErrShapeMismatch)
	}
	first := masks[0]
	for i, m := range masks[1:] {
		if !first.SameShape(m) {
			return nil, fmt.Errorf("%w: mask %d is %dx%d, want %dx%d",
				ErrShapeMismatch, i+1, m.Width, m.Height, first.Width, first.Height)
		}
	}
	sum := first.Clone()
	for _, m := range masks[1:] {
		floats.Add(sum.Data, m.Data)
	}
	return sum, nil
}

// Subtract returns acc minus one as a new mask. Inputs are never modified.
func Subtract(acc, one *Mask) (*Mask, error) {
	if !acc.SameShape(one) {
		return nil, fmt.Errorf("%w: %dx%d minus %dx%d",
			ErrShapeMismatch, acc.Width, acc.Height, one.Width, one.Height)
	}
	diff := acc.Clone()
	floats.Sub(diff.Data, one.Data)
	return diff, nil
}
