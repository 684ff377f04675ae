package extraction

import (
	"image"

	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// SequentialElimination is the single-threaded predecessor of
// ConcurrentElimination. It walks the source's row in both directions, then
// walks the source's column up and down, and from every column cell that keeps
// the falling trend it walks that row left and right.
//
// Results differ from ConcurrentElimination: row walks here start from column
// cells only, so the ignited region is row-biased.
type SequentialElimination struct {
	Options Options
}

// Extract implements Extractor.
func (s *SequentialElimination) Extract(field *heat.Field) ([]heat.Point, error) {
	if err := s.Options.Validate(); err != nil {
		return nil, err
	}
	f := field.Clone()
	points := make([]heat.Point, 0)
	for {
		pos, val := f.Max()
		if val == 0 {
			break
		}
		if isValidSource(f, pos, s.Options) {
			points = append(points, heat.Point{X: pos.X, Y: pos.Y, Intensity: int(val)})
		}
		for _, p := range s.affected(f, pos) {
			f.Set(p.X, p.Y, 0)
		}
	}
	heat.SortPoints(points)
	return points, nil
}

// affected lists the cells ignited by the source at center, center included.
func (s *SequentialElimination) affected(f *heat.Field, center image.Point) []image.Point {
	out := []image.Point{center}
	window := s.Options.TrendWindow

	visitRow := func(anchor image.Point) {
		for _, dx := range []int{1, -1} {
			t := newTrend(window, f.At(anchor.X, anchor.Y))
			for x := anchor.X + dx; x >= 0 && x < f.Width; x += dx {
				if !t.push(f.At(x, anchor.Y)) {
					break
				}
				out = append(out, image.Pt(x, anchor.Y))
			}
		}
	}

	visitRow(center)
	for _, dy := range []int{1, -1} {
		t := newTrend(window, f.At(center.X, center.Y))
		for y := center.Y + dy; y >= 0 && y < f.Height; y += dy {
			if !t.push(f.At(center.X, y)) {
				break
			}
			p := image.Pt(center.X, y)
			out = append(out, p)
			visitRow(p)
		}
	}
	return out
}
