package extraction

import (
	"image"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// SmoothedMaxima finds heat sources as local maxima of a smoothed copy of the
// field.
//
// The field is blurred with a Gaussian, then sampled every Stride pixels. A
// sample is a source when it is the maximum of the (2*Neighbourhood+1)^2
// samples around it and the raw field is hot at that position. Plateaus report
// only their first sample in row-major order.
type SmoothedMaxima struct {
	Radius        float64 // Gaussian blur radius in pixels
	Stride        int     // sampling step in pixels
	Neighbourhood int     // half-width of the comparison window in samples
}

// NewSmoothedMaxima returns a SmoothedMaxima with default tuning.
func NewSmoothedMaxima() *SmoothedMaxima {
	return &SmoothedMaxima{Radius: 10, Stride: 4, Neighbourhood: 5}
}

// Extract implements Extractor.
func (s *SmoothedMaxima) Extract(field *heat.Field) ([]heat.Point, error) {
	points := make([]heat.Point, 0)
	if field.Width == 0 || field.Height == 0 {
		return points, nil
	}
	stride := s.Stride
	if stride < 1 {
		stride = 1
	}

	smooth := smoothed(field, func(img image.Image) *image.RGBA {
		return blur.Gaussian(img, s.Radius)
	})

	cols := (field.Width + stride - 1) / stride
	rows := (field.Height + stride - 1) / stride
	grid := make([]uint8, cols*rows)
	for gy := 0; gy < rows; gy++ {
		for gx := 0; gx < cols; gx++ {
			grid[gy*cols+gx] = smooth[gy*stride*field.Width+gx*stride]
		}
	}

	n := s.Neighbourhood
	for gy := 0; gy < rows; gy++ {
		for gx := 0; gx < cols; gx++ {
			x, y := gx*stride, gy*stride
			if field.At(x, y) == 0 {
				continue
			}
			if !isGridMaximum(grid, cols, rows, gx, gy, n) {
				continue
			}
			points = append(points, heat.Point{X: x, Y: y, Intensity: int(field.At(x, y))})
		}
	}
	heat.SortPoints(points)
	return points, nil
}

// isGridMaximum reports whether the sample at (gx, gy) is at least as hot as
// every sample within n steps and strictly hotter than those scanned before it.
func isGridMaximum(grid []uint8, cols, rows, gx, gy, n int) bool {
	v := grid[gy*cols+gx]
	if v == 0 {
		return false
	}
	for y := max(0, gy-n); y <= min(rows-1, gy+n); y++ {
		for x := max(0, gx-n); x <= min(cols-1, gx+n); x++ {
			if x == gx && y == gy {
				continue
			}
			other := grid[y*cols+x]
			if other > v {
				return false
			}
			before := y < gy || (y == gy && x < gx)
			if before && other == v {
				return false
			}
		}
	}
	return true
}

// smoothed applies a bild filter to the field and returns the red channel,
// which carries the intensity after gray to RGBA conversion.
func smoothed(field *heat.Field, filter func(image.Image) *image.RGBA) []uint8 {
	rgba := filter(field.Image())
	out := make([]uint8, field.Width*field.Height)
	for y := 0; y < field.Height; y++ {
		for x := 0; x < field.Width; x++ {
			out[y*field.Width+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return out
}
