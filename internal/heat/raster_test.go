package heat

import (
	"testing"
)

func TestToDisplay(t *testing.T) {
	tests := []struct {
		nx, ny float64
		wantX  int
		wantY  int
	}{
		{0, 0, 0, 0},
		{1, 1, 99, 49},
		{0.5, 0.5, 49, 24},
	}
	for _, tt := range tests {
		x, y := ToDisplay(tt.nx, tt.ny, 100, 50)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("ToDisplay(%v,%v) = (%d,%d), want (%d,%d)", tt.nx, tt.ny, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestRasterizeEmpty(t *testing.T) {
	tests := []struct {
		name   string
		points []WeightedPoint
	}{
		{"no points", nil},
		{"zero weight", []WeightedPoint{{X: 0.5, Y: 0.5, Weight: 0}}},
		{"off display", []WeightedPoint{{X: 1.5, Y: -0.1, Weight: 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Rasterize(tt.points, 20, 10, 3)
			if f.Width != 20 || f.Height != 10 {
				t.Fatalf("unexpected shape %dx%d", f.Width, f.Height)
			}
			if !f.IsZero() {
				t.Error("expected all-zero field")
			}
		})
	}
}

func TestRasterizeNormalizesToPeak(t *testing.T) {
	points := []WeightedPoint{
		{X: 0, Y: 0, Weight: 1},
		{X: 1, Y: 1, Weight: 4},
	}
	f := Rasterize(points, 50, 50, 2)

	pos, val := f.Max()
	if val != 255 {
		t.Errorf("peak = %d, want 255", val)
	}
	if pos.X != 49 || pos.Y != 49 {
		t.Errorf("peak at %v, want (49,49)", pos)
	}
	if f.At(0, 0) == 0 || f.At(0, 0) >= 255 {
		t.Errorf("weaker point = %d, want between 0 and 255", f.At(0, 0))
	}
	if f.At(25, 25) != 0 {
		t.Errorf("cell outside both kernels = %d, want 0", f.At(25, 25))
	}
}

func TestRasterizeSumsCoincidentPoints(t *testing.T) {
	points := []WeightedPoint{
		{X: 0, Y: 0, Weight: 1},
		{X: 0, Y: 0, Weight: 1},
		{X: 1, Y: 0, Weight: 1},
	}
	f := Rasterize(points, 10, 1, 0)

	if f.At(0, 0) != 255 {
		t.Errorf("summed cell = %d, want 255", f.At(0, 0))
	}
	if f.At(9, 0) != 127 {
		t.Errorf("single cell = %d, want 127", f.At(9, 0))
	}
}

func TestGaussianKernelIsNormalized(t *testing.T) {
	kernel := gaussianKernel(1.5)
	if len(kernel)%2 != 1 {
		t.Fatalf("kernel length %d is not odd", len(kernel))
	}
	var sum float64
	for _, v := range kernel {
		sum += v
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("kernel sum = %v, want 1", sum)
	}
	mid := len(kernel) / 2
	if kernel[mid] <= kernel[mid-1] || kernel[mid] <= kernel[mid+1] {
		t.Error("kernel is not peaked at the centre")
	}
}

func TestRasterizeIsDeterministic(t *testing.T) {
	var points []WeightedPoint
	for i := 0; i < 40; i++ {
		points = append(points, WeightedPoint{
			X:      float64(i%7) / 6,
			Y:      float64(i%5) / 4,
			Weight: 1 + float64(i)/3,
		})
	}

	want := Rasterize(points, 50, 40, 4)
	for run := 0; run < 20; run++ {
		got := Rasterize(points, 50, 40, 4)
		for i := range want.Pix {
			if got.Pix[i] != want.Pix[i] {
				t.Fatalf("run %d: pixel %d = %d, want %d", run, i, got.Pix[i], want.Pix[i])
			}
		}
	}
}
