package heat

import (
	"math"
	"sort"
)

// DefaultSigma is the Gaussian standard deviation, in pixels, used when
// rasterizing fixations onto a full-HD stimulus.
const DefaultSigma = 45.0

// WeightedPoint is a fixation in normalized display coordinates together with
// the intensity it contributes to a heatmap.
type WeightedPoint struct {
	X      float64 // Normalized horizontal position in [0,1]
	Y      float64 // Normalized vertical position in [0,1]
	Weight float64 // Unnormalized intensity contribution
}

// ToDisplay converts a normalized coordinate pair to a pixel position on a
// display of the given size. The mapping is int(v * (size-1)), so 1.0 lands on
// the last pixel.
func ToDisplay(nx, ny float64, width, height int) (int, int) {
	return int(nx * float64(width-1)), int(ny * float64(height-1))
}

// Rasterize renders weighted points into a normalized heat field.
//
// Parameters:
//   - points: Fixations in normalized coordinates. Points outside [0,1] are
//     ignored.
//   - width, height: Size of the output raster.
//   - sigma: Gaussian standard deviation in pixels. Values <= 0 disable
//     smoothing.
//
// Returns a field whose hottest cell is 255. If no point contributes any
// intensity the field is all zero.
//
// # Algorithm
//
//  1. Each point's weight is added to the cell it maps to via ToDisplay.
//  2. The accumulated grid is smoothed with a Gaussian. Since the grid is
//     sparse, each non-empty cell is splatted through a separable kernel
//     truncated at 3*sigma instead of convolving the whole raster.
//  3. The result is scaled so its maximum becomes 255 and truncated to 8 bits.
func Rasterize(points []WeightedPoint, width, height int, sigma float64) *Field {
	f := NewField(width, height)
	if width == 0 || height == 0 {
		return f
	}

	sums := make(map[int]float64)
	for _, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 || p.Weight == 0 {
			continue
		}
		x, y := ToDisplay(p.X, p.Y, width, height)
		sums[y*width+x] += p.Weight
	}
	if len(sums) == 0 {
		return f
	}

	// Cells are splatted in index order so equal inputs round identically.
	cells := make([]int, 0, len(sums))
	for idx := range sums {
		cells = append(cells, idx)
	}
	sort.Ints(cells)

	acc := make([]float64, width*height)
	if sigma <= 0 {
		for _, idx := range cells {
			acc[idx] += sums[idx]
		}
	} else {
		kernel := gaussianKernel(sigma)
		radius := len(kernel) / 2
		for _, idx := range cells {
			w := sums[idx]
			cx, cy := idx%width, idx/width
			y0, y1 := clamp(cy-radius, 0, height-1), clamp(cy+radius, 0, height-1)
			x0, x1 := clamp(cx-radius, 0, width-1), clamp(cx+radius, 0, width-1)
			for y := y0; y <= y1; y++ {
				ky := kernel[y-cy+radius] * w
				row := acc[y*width : (y+1)*width]
				for x := x0; x <= x1; x++ {
					row[x] += ky * kernel[x-cx+radius]
				}
			}
		}
	}

	maxVal := 0.0
	for _, v := range acc {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		return f
	}
	for i, v := range acc {
		if v <= 0 {
			continue
		}
		f.Pix[i] = uint8(v / maxVal * 255)
	}
	return f
}

// gaussianKernel returns a normalized 1-D Gaussian truncated at 3*sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
