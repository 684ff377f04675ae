package extraction

import (
	"image"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// RowColumnMaxima finds heat sources where a row maximum and a column maximum
// of a box-smoothed field coincide.
//
// Each row and each column of the smoothed field is scanned for 1-D local
// maxima. A row maximum on a hot raw cell with a column maximum at Euclidean
// distance below 2 becomes a candidate. Candidates closer than MergeDistance
// to an accepted source replace it when hotter and are dropped otherwise.
type RowColumnMaxima struct {
	Radius        float64 // box blur radius in pixels
	MergeDistance float64
}

// NewRowColumnMaxima returns a RowColumnMaxima with default tuning.
func NewRowColumnMaxima() *RowColumnMaxima {
	return &RowColumnMaxima{Radius: 3, MergeDistance: 10}
}

// Extract implements Extractor.
func (r *RowColumnMaxima) Extract(field *heat.Field) ([]heat.Point, error) {
	points := make([]heat.Point, 0)
	w, h := field.Width, field.Height
	if w == 0 || h == 0 {
		return points, nil
	}

	smooth := smoothed(field, func(img image.Image) *image.RGBA {
		return blur.Box(img, r.Radius)
	})

	columnMaxima := make(map[image.Point]bool)
	line := make([]uint8, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			line[y] = smooth[y*w+x]
		}
		for _, y := range lineMaxima(line) {
			columnMaxima[image.Pt(x, y)] = true
		}
	}

	for y := 0; y < h; y++ {
		for _, x := range lineMaxima(smooth[y*w : (y+1)*w]) {
			v := field.At(x, y)
			if v == 0 || !nearColumnMaximum(columnMaxima, x, y) {
				continue
			}
			points = r.merge(points, heat.Point{X: x, Y: y, Intensity: int(v)})
		}
	}
	heat.SortPoints(points)
	return points, nil
}

// merge adds candidate to points unless a source within MergeDistance already
// exists. A hotter candidate replaces that source.
func (r *RowColumnMaxima) merge(points []heat.Point, candidate heat.Point) []heat.Point {
	limit := r.MergeDistance * r.MergeDistance
	for i, p := range points {
		dx, dy := float64(p.X-candidate.X), float64(p.Y-candidate.Y)
		if dx*dx+dy*dy >= limit {
			continue
		}
		if candidate.Intensity > p.Intensity {
			points = append(points[:i], points[i+1:]...)
			return append(points, candidate)
		}
		return points
	}
	return append(points, candidate)
}

// nearColumnMaximum reports whether a column maximum lies at distance < 2 from
// (x, y), which covers the 3x3 block around it.
func nearColumnMaximum(columnMaxima map[image.Point]bool, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if columnMaxima[image.Pt(x+dx, y+dy)] {
				return true
			}
		}
	}
	return false
}

// lineMaxima returns the indices of 1-D local maxima: values strictly hotter
// than the previous value and at least as hot as the next. Plateaus report
// their first index. Ends count as colder than any value.
func lineMaxima(values []uint8) []int {
	var out []int
	n := len(values)
	for i := 0; i < n; i++ {
		v := values[i]
		if v == 0 {
			continue
		}
		if i > 0 && values[i-1] >= v {
			continue
		}
		j := i
		for j+1 < n && values[j+1] == v {
			j++
		}
		if j+1 < n && values[j+1] > v {
			continue
		}
		out = append(out, i)
	}
	return out
}
