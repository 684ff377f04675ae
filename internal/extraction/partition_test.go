package extraction

import (
	"image"
	"testing"
)

func TestMarkerMaskExampleShapes(t *testing.T) {
	m, err := NewMarkerMask(7, 5, image.Pt(2, 2))
	if err != nil {
		t.Fatalf("NewMarkerMask failed: %v", err)
	}

	want := map[string]Region{
		"PY":    {Name: "PY", X: 2, Y: 0, Width: 1, Height: 2, Length: 2},
		"PX":    {Name: "PX", X: 3, Y: 2, Width: 4, Height: 1, Length: 4},
		"NY":    {Name: "NY", X: 2, Y: 3, Width: 1, Height: 2, Length: 2},
		"NX":    {Name: "NX", X: 0, Y: 2, Width: 2, Height: 1, Length: 2},
		"PY-PX": {Name: "PY-PX", X: 3, Y: 0, Width: 4, Height: 2, Length: 8},
		"NY-PX": {Name: "NY-PX", X: 3, Y: 3, Width: 4, Height: 2, Length: 8},
		"NY-NX": {Name: "NY-NX", X: 0, Y: 3, Width: 2, Height: 2, Length: 4},
		"PY-NX": {Name: "PY-NX", X: 0, Y: 0, Width: 2, Height: 2, Length: 4},
	}

	regions := m.Regions()
	if len(regions) != len(want) {
		t.Fatalf("got %d regions, want %d", len(regions), len(want))
	}
	for _, r := range regions {
		if r != want[r.Name] {
			t.Errorf("region %s = %+v, want %+v", r.Name, r, want[r.Name])
		}
	}
}

func TestMarkerMaskCoversRasterOnce(t *testing.T) {
	sizes := []image.Point{{1, 1}, {1, 6}, {6, 1}, {7, 5}, {4, 9}}

	for _, size := range sizes {
		for cy := 0; cy < size.Y; cy++ {
			for cx := 0; cx < size.X; cx++ {
				center := image.Pt(cx, cy)
				m, err := NewMarkerMask(size.X, size.Y, center)
				if err != nil {
					t.Fatalf("NewMarkerMask(%v, %v) failed: %v", size, center, err)
				}
				areas := append(m.Axes[:], m.Quadrants[:]...)

				total := 0
				for _, a := range areas {
					total += a.Len()
				}
				if total != size.X*size.Y-1 {
					t.Errorf("%v centre %v: regions hold %d cells, want %d", size, center, total, size.X*size.Y-1)
				}

				for y := 0; y < size.Y; y++ {
					for x := 0; x < size.X; x++ {
						owners := 0
						for _, a := range areas {
							if a.Contains(image.Pt(x, y)) {
								owners++
							}
						}
						want := 1
						if x == cx && y == cy {
							want = 0
						}
						if owners != want {
							t.Errorf("%v centre %v: cell (%d,%d) owned %d times, want %d", size, center, x, y, owners, want)
						}
					}
				}
			}
		}
	}
}

func TestNewMarkerMaskRejectsOutsideCentre(t *testing.T) {
	if _, err := NewMarkerMask(3, 3, image.Pt(3, 0)); err == nil {
		t.Error("expected error for centre outside raster")
	}
}

func TestAreaMarkTranslatesAndClips(t *testing.T) {
	a := newArea(image.Pt(3, 0), 4, 2)

	if !a.Mark(image.Pt(4, 1), 1) {
		t.Fatal("Mark inside area returned false")
	}
	a.Mark(image.Pt(4, 1), 1)
	if got := a.Counter(image.Pt(4, 1)); got != 2 {
		t.Errorf("Counter = %d, want 2", got)
	}
	if got := a.marks[1*4+1]; got != 2 {
		t.Errorf("local cell = %d, want 2", got)
	}

	if a.Mark(image.Pt(2, 0), 1) {
		t.Error("Mark outside area returned true")
	}
	if a.Mark(image.Pt(3, 2), 1) {
		t.Error("Mark below area returned true")
	}
}

func TestMarkerMaskFull(t *testing.T) {
	m, err := NewMarkerMask(3, 3, image.Pt(1, 1))
	if err != nil {
		t.Fatalf("NewMarkerMask failed: %v", err)
	}
	m.Axes[PY].Mark(image.Pt(1, 0), 1)
	m.Quadrants[PX].Mark(image.Pt(2, 2), 1)
	m.Quadrants[PX].Mark(image.Pt(2, 2), -1)
	m.Quadrants[NX].Mark(image.Pt(0, 0), 1)
	m.Quadrants[NX].Mark(image.Pt(0, 0), 1)

	want := []bool{
		true, true, false,
		false, true, false,
		false, false, false,
	}
	got := m.Full()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDirectionNextAndStep(t *testing.T) {
	tests := []struct {
		d    Direction
		next Direction
		step image.Point
	}{
		{PY, PX, image.Pt(0, -1)},
		{PX, NY, image.Pt(1, 0)},
		{NY, NX, image.Pt(0, 1)},
		{NX, PY, image.Pt(-1, 0)},
	}
	for _, tt := range tests {
		if tt.d.Next() != tt.next {
			t.Errorf("%s.Next() = %s, want %s", tt.d, tt.d.Next(), tt.next)
		}
		if tt.d.Step() != tt.step {
			t.Errorf("%s.Step() = %v, want %v", tt.d, tt.d.Step(), tt.step)
		}
	}
}
