package heat

import (
	"strings"
	"testing"
)

func TestWritePointsSortsAscending(t *testing.T) {
	points := []Point{
		{X: 1, Y: 1, Intensity: 200},
		{X: 2, Y: 2, Intensity: 10},
		{X: 3, Y: 3, Intensity: 90},
	}

	data, err := MarshalPoints(points)
	if err != nil {
		t.Fatalf("MarshalPoints failed: %v", err)
	}

	want := "X,Y,Intensity\n2,2,10\n3,3,90\n1,1,200\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
	if points[0].Intensity != 200 {
		t.Error("caller slice was reordered")
	}
}

func TestParsePointsRoundTripIsIdempotent(t *testing.T) {
	input := "X,Y,Intensity\n4,4,3\n1,0,17\n0,9,17\n7,7,255\n"

	points, err := ParsePoints(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParsePoints failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}

	data, err := MarshalPoints(points)
	if err != nil {
		t.Fatalf("MarshalPoints failed: %v", err)
	}
	if string(data) != input {
		t.Errorf("round trip changed artifact:\n%s", data)
	}
}

func TestParsePointsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "x,y,value\n1,2,3\n"},
		{"short row", "X,Y,Intensity\n1,2\n"},
		{"not a number", "X,Y,Intensity\n1,two,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePoints(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParsePointsSkipsBlankLines(t *testing.T) {
	points, err := UnmarshalPoints([]byte("X,Y,Intensity\n\n1,2,3\n\n"))
	if err != nil {
		t.Fatalf("UnmarshalPoints failed: %v", err)
	}
	if len(points) != 1 || points[0] != (Point{X: 1, Y: 2, Intensity: 3}) {
		t.Errorf("unexpected points: %+v", points)
	}
}
