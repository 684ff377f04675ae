package heat

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"io"
	"sort"
	"strconv"
	"strings"
)

// PointsHeader is the first line of every heat point artifact.
const PointsHeader = "X,Y,Intensity"

// Point is a heat source: a raster position and the intensity found there.
type Point struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Intensity int `json:"intensity"`
}

// Position returns the point's raster coordinates.
func (p Point) Position() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// SortPoints sorts points ascending by intensity. Points of equal intensity keep
// their relative order.
func SortPoints(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Intensity < points[j].Intensity
	})
}

// WritePoints writes points as a heat point table, sorted ascending by
// intensity. The caller's slice is not reordered.
func WritePoints(w io.Writer, points []Point) error {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	SortPoints(sorted)

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, PointsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range sorted {
		if _, err := fmt.Fprintf(bw, "%d,%d,%d\n", p.X, p.Y, p.Intensity); err != nil {
			return fmt.Errorf("failed to write heat point: %w", err)
		}
	}
	return bw.Flush()
}

// MarshalPoints returns the artifact bytes for points.
func MarshalPoints(points []Point) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePoints(&buf, points); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParsePoints reads a heat point table. The header line is required; any
// malformed row is an error.
func ParsePoints(r io.Reader) ([]Point, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, fmt.Errorf("missing header %q", PointsHeader)
	}
	if header := strings.TrimSpace(scanner.Text()); header != PointsHeader {
		return nil, fmt.Errorf("unexpected header %q, want %q", header, PointsHeader)
	}

	points := make([]Point, 0)
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		var values [3]int
		for i, field := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			values[i] = v
		}
		points = append(points, Point{X: values[0], Y: values[1], Intensity: values[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read heat points: %w", err)
	}
	return points, nil
}

// UnmarshalPoints parses artifact bytes produced by MarshalPoints.
func UnmarshalPoints(data []byte) ([]Point, error) {
	return ParsePoints(bytes.NewReader(data))
}
