package extraction

import (
	"image"
	"sync"

	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// ConcurrentElimination extracts heat sources by repeatedly taking the hottest
// cell and erasing the region it ignites.
//
// # Algorithm
//
//  1. Find the first maximum in row-major order. A maximum of 0 ends the loop.
//  2. Emit the maximum if it passes the validity check.
//  3. Build an elimination mask around it with a MarkerMask:
//     - axis phase: one goroutine per axis walks outward while intensity keeps
//     falling, recording the cells it eliminates;
//     - quadrant phase: one goroutine per quadrant walks perpendicular from
//     every eliminated point on the quadrant's two bounding axes.
//     Each goroutine writes only to regions it owns, so no locking is needed.
//  4. Zero the eliminated cells, including the maximum itself, and repeat.
//
// Every iteration zeroes at least one positive cell, so extraction always
// terminates.
type ConcurrentElimination struct {
	Options Options
}

// Extract implements Extractor.
func (c *ConcurrentElimination) Extract(field *heat.Field) ([]heat.Point, error) {
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}
	f := field.Clone()
	points := make([]heat.Point, 0)
	for {
		pos, val := f.Max()
		if val == 0 {
			break
		}
		if isValidSource(f, pos, c.Options) {
			points = append(points, heat.Point{X: pos.X, Y: pos.Y, Intensity: int(val)})
		}
		mask, err := c.EliminationMask(f, pos)
		if err != nil {
			return nil, err
		}
		for i, eliminate := range mask {
			if eliminate {
				f.Pix[i] = 0
			}
		}
	}
	heat.SortPoints(points)
	return points, nil
}

// EliminationMask returns the row-major mask of cells ignited by the source at
// center. The field is only read.
func (c *ConcurrentElimination) EliminationMask(f *heat.Field, center image.Point) ([]bool, error) {
	m, err := NewMarkerMask(f.Width, f.Height, center)
	if err != nil {
		return nil, err
	}

	var axisPoints [4][]image.Point
	var wg sync.WaitGroup
	for _, d := range Directions {
		wg.Add(1)
		go func(d Direction) {
			defer wg.Done()
			axisPoints[d] = walk(f, center, d.Step(), m.Axes[d], c.Options.TrendWindow)
		}(d)
	}
	wg.Wait()

	for _, d := range Directions {
		wg.Add(1)
		go func(d Direction) {
			defer wg.Done()
			c.visitQuadrant(f, m.Quadrants[d], d, axisPoints[d], axisPoints[d.Next()])
		}(d)
	}
	wg.Wait()

	return m.Full(), nil
}

// visitQuadrant walks the quadrant owned by primary from both bounding axes.
// From the primary axis the walk turns clockwise; from the support axis it
// turns counter-clockwise, so both walks head into the quadrant.
func (c *ConcurrentElimination) visitQuadrant(f *heat.Field, q *Area, primary Direction, primaryPoints, supportPoints []image.Point) {
	ps := primary.Step()
	fromPrimary := image.Pt(-ps.Y, ps.X)
	for _, seed := range primaryPoints {
		walk(f, seed, fromPrimary, q, c.Options.TrendWindow)
	}

	ss := primary.Next().Step()
	fromSupport := image.Pt(ss.Y, -ss.X)
	for _, seed := range supportPoints {
		walk(f, seed, fromSupport, q, c.Options.TrendWindow)
	}
}

// walk steps from start in dir until the trend breaks or the raster ends. Each
// cell visited while the trend holds is marked +1 in area; the cell that breaks
// the trend is marked -1. It returns the cells marked +1 in walk order.
func walk(f *heat.Field, start, dir image.Point, area *Area, window int) []image.Point {
	var eliminated []image.Point
	t := newTrend(window, f.At(start.X, start.Y))
	p := start
	for {
		p = p.Add(dir)
		if !f.InBounds(p.X, p.Y) {
			return eliminated
		}
		if !t.push(f.At(p.X, p.Y)) {
			area.Mark(p, -1)
			return eliminated
		}
		area.Mark(p, 1)
		eliminated = append(eliminated, p)
	}
}
