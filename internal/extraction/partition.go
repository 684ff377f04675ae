package extraction

import (
	"fmt"
	"image"
)

// Direction identifies one of the four axes leaving a centre point.
//
// Y grows downward, so PY points up the raster and NY points down.
type Direction int

const (
	PY Direction = iota // toward row 0
	PX                  // toward the last column
	NY                  // toward the last row
	NX                  // toward column 0
)

// Directions lists the axes in clockwise order starting at PY.
var Directions = [4]Direction{PY, PX, NY, NX}

// Step returns the unit vector of d in raster coordinates.
func (d Direction) Step() image.Point {
	switch d {
	case PY:
		return image.Pt(0, -1)
	case PX:
		return image.Pt(1, 0)
	case NY:
		return image.Pt(0, 1)
	default:
		return image.Pt(-1, 0)
	}
}

// Next returns the axis clockwise from d. Together d and d.Next() bound the
// quadrant owned by d.
func (d Direction) Next() Direction {
	return (d + 1) % 4
}

func (d Direction) String() string {
	switch d {
	case PY:
		return "PY"
	case PX:
		return "PX"
	case NY:
		return "NY"
	case NX:
		return "NX"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// quadrantName names the quadrant between d and its clockwise neighbour with
// the Y axis first.
func quadrantName(d Direction) string {
	switch d {
	case PY:
		return "PY-PX"
	case PX:
		return "NY-PX"
	case NY:
		return "NY-NX"
	default:
		return "PY-NX"
	}
}

// Area is a rectangular view into the raster backed by private storage.
//
// Callers address it with global raster coordinates; Area translates them by
// its origin. Writes outside the view are dropped, so a worker can never touch
// cells owned by another worker.
type Area struct {
	Origin image.Point
	Width  int
	Height int
	marks  []int
}

func newArea(origin image.Point, width, height int) *Area {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Area{
		Origin: origin,
		Width:  width,
		Height: height,
		marks:  make([]int, width*height),
	}
}

// Bounds returns the area in global raster coordinates.
func (a *Area) Bounds() image.Rectangle {
	return image.Rect(a.Origin.X, a.Origin.Y, a.Origin.X+a.Width, a.Origin.Y+a.Height)
}

// Len returns the number of cells in the area.
func (a *Area) Len() int {
	return len(a.marks)
}

func (a *Area) local(p image.Point) (int, bool) {
	x, y := p.X-a.Origin.X, p.Y-a.Origin.Y
	if x < 0 || x >= a.Width || y < 0 || y >= a.Height {
		return 0, false
	}
	return y*a.Width + x, true
}

// Contains reports whether the global point p lies inside the area.
func (a *Area) Contains(p image.Point) bool {
	_, ok := a.local(p)
	return ok
}

// Mark adds delta to the counter at the global point p. It reports false if p
// is outside the area.
func (a *Area) Mark(p image.Point, delta int) bool {
	i, ok := a.local(p)
	if !ok {
		return false
	}
	a.marks[i] += delta
	return true
}

// Counter returns the counter at the global point p, or 0 outside the area.
func (a *Area) Counter(p image.Point) int {
	i, ok := a.local(p)
	if !ok {
		return 0
	}
	return a.marks[i]
}

// MarkerMask partitions a raster around a centre point into four axes and four
// quadrants. Every cell other than the centre belongs to exactly one region.
//
// Each cell carries a counter. A walk that supports eliminating the cell adds
// one; a walk that stops at the cell subtracts one. A cell is eliminated when
// its counter is positive.
type MarkerMask struct {
	Center    image.Point
	Width     int
	Height    int
	Axes      [4]*Area // indexed by Direction
	Quadrants [4]*Area // indexed by the owning Direction
}

// NewMarkerMask builds the partition of a width x height raster around center.
// It returns an error if center lies outside the raster.
func NewMarkerMask(width, height int, center image.Point) (*MarkerMask, error) {
	if center.X < 0 || center.X >= width || center.Y < 0 || center.Y >= height {
		return nil, fmt.Errorf("centre %v outside %dx%d raster", center, width, height)
	}

	cx, cy := center.X, center.Y
	py := cy
	px := width - cx - 1
	ny := height - cy - 1
	nx := cx

	m := &MarkerMask{Center: center, Width: width, Height: height}
	m.Axes[PY] = newArea(image.Pt(cx, 0), 1, py)
	m.Axes[PX] = newArea(image.Pt(cx+1, cy), px, 1)
	m.Axes[NY] = newArea(image.Pt(cx, cy+1), 1, ny)
	m.Axes[NX] = newArea(image.Pt(0, cy), nx, 1)

	m.Quadrants[PY] = newArea(image.Pt(cx+1, 0), px, py)    // PY-PX
	m.Quadrants[PX] = newArea(image.Pt(cx+1, cy+1), px, ny) // NY-PX
	m.Quadrants[NY] = newArea(image.Pt(0, cy+1), nx, ny)    // NY-NX
	m.Quadrants[NX] = newArea(image.Pt(0, 0), nx, py)       // PY-NX
	return m, nil
}

// Region describes one part of the partition.
type Region struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Length int    `json:"length"`
}

// Regions lists the four axes followed by the four quadrants.
func (m *MarkerMask) Regions() []Region {
	regions := make([]Region, 0, 8)
	for _, d := range Directions {
		a := m.Axes[d]
		length := a.Width
		if d == PY || d == NY {
			length = a.Height
		}
		regions = append(regions, Region{
			Name: d.String(), X: a.Origin.X, Y: a.Origin.Y,
			Width: a.Width, Height: a.Height, Length: length,
		})
	}
	for _, d := range Directions {
		q := m.Quadrants[d]
		regions = append(regions, Region{
			Name: quadrantName(d), X: q.Origin.X, Y: q.Origin.Y,
			Width: q.Width, Height: q.Height, Length: q.Len(),
		})
	}
	return regions
}

// areaFor returns the region that owns p, or nil for the centre and points
// outside the raster.
func (m *MarkerMask) areaFor(p image.Point) *Area {
	for _, a := range m.Axes {
		if a.Contains(p) {
			return a
		}
	}
	for _, q := range m.Quadrants {
		if q.Contains(p) {
			return q
		}
	}
	return nil
}

// Full stitches every region into one row-major elimination mask of the whole
// raster. The centre is always eliminated.
func (m *MarkerMask) Full() []bool {
	full := make([]bool, m.Width*m.Height)
	regions := append(m.Axes[:], m.Quadrants[:]...)
	for _, a := range regions {
		for ly := 0; ly < a.Height; ly++ {
			row := (a.Origin.Y + ly) * m.Width
			for lx := 0; lx < a.Width; lx++ {
				if a.marks[ly*a.Width+lx] > 0 {
					full[row+a.Origin.X+lx] = true
				}
			}
		}
	}
	full[m.Center.Y*m.Width+m.Center.X] = true
	return full
}
