package directed

import (
	"fmt"
	"math"

	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
)

// DefaultConstantIntensity is the saccade strength under the constant policy.
const DefaultConstantIntensity = 50.0

// Builder turns fixation sequences into directed masks.
type Builder struct {
	Policy            gaze.WeightPolicy
	ConstantIntensity float64
}

// NewBuilder returns a builder for policy with the default constant intensity.
func NewBuilder(policy gaze.WeightPolicy) *Builder {
	return &Builder{Policy: policy, ConstantIntensity: DefaultConstantIntensity}
}

// Build rasterizes the saccades between consecutive fixations into a mask of
// the given size.
//
// Parameters:
//   - fixations: Chronological fixations in normalized coordinates.
//   - width, height: Stimulus size in pixels.
//
// Returns:
//   - *Mask: The accumulated flow. Fewer than two fixations give a zero mask.
//   - error: Wraps gaze.ErrInvalidInput for zero-length saccades, non-positive
//     sizes and unknown policies.
//
// # Algorithm
//
// For each pair (a, b) the saccade runs from origin (a.X*width, a.Y*height)
// to the scaled position of b. Its unit direction u is scaled by an intensity s
// chosen by the policy:
//
//   - constant: ConstantIntensity
//   - distance: the saccade length in pixels
//   - duration: a.Duration normalized into [1,256] over the episode
//   - order: a's flipped timestamp normalized into [1,256], so earlier
//     saccades are stronger
//
// Every cell within Euclidean distance s of the origin receives u*s*(1-d/s).
// Contributions from all saccades add up.
func (b *Builder) Build(fixations []gaze.Fixation, width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask size %dx%d", gaze.ErrInvalidInput, width, height)
	}
	mask := NewMask(width, height)
	if len(fixations) < 2 {
		return mask, nil
	}

	weigh, err := b.weigher(fixations)
	if err != nil {
		return nil, err
	}

	w, h := float64(width), float64(height)
	for i := 0; i < len(fixations)-1; i++ {
		from, to := fixations[i], fixations[i+1]
		ox, oy := from.X*w, from.Y*h
		dx, dy := to.X*w-ox, to.Y*h-oy
		length := math.Hypot(dx, dy)
		if length == 0 {
			return nil, fmt.Errorf("%w: zero-length saccade at fixation %d", gaze.ErrInvalidInput, i)
		}
		strength := weigh(from, length)
		splat(mask, ox, oy, dx/length, dy/length, strength)
	}
	return mask, nil
}

// weigher returns the intensity function for the builder's policy, closed over
// the episode's duration and timestamp ranges.
func (b *Builder) weigher(fixations []gaze.Fixation) (func(f gaze.Fixation, length float64) float64, error) {
	switch b.Policy {
	case gaze.WeightConstant, "":
		c := b.ConstantIntensity
		return func(gaze.Fixation, float64) float64 { return c }, nil
	case gaze.WeightDistance:
		return func(_ gaze.Fixation, length float64) float64 { return length }, nil
	case gaze.WeightDuration:
		lo, hi := gaze.DurationRange(fixations)
		return func(f gaze.Fixation, _ float64) float64 {
			return gaze.Normalize(f.Duration, lo, hi, 1, 256)
		}, nil
	case gaze.WeightOrder:
		first, last := gaze.TimestampRange(fixations)
		hi := gaze.FlipTimestamp(first, last)
		return func(f gaze.Fixation, _ float64) float64 {
			return gaze.Normalize(gaze.FlipTimestamp(f.Timestamp, last), 1, hi, 1, 256)
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown weight policy %q", gaze.ErrInvalidInput, b.Policy)
}

// splat adds the contribution of one saccade: every cell within radius s of
// (ox, oy) receives (ux, uy) scaled by s*(1-d/s).
func splat(m *Mask, ox, oy, ux, uy, s float64) {
	if s <= 0 {
		return
	}
	x0 := max(0, int(math.Floor(ox-s)))
	x1 := min(m.Width-1, int(math.Ceil(ox+s)))
	y0 := max(0, int(math.Floor(oy-s)))
	y1 := min(m.Height-1, int(math.Ceil(oy+s)))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)-ox, float64(y)-oy)
			if d >= s {
				continue
			}
			strength := s * (1 - d/s)
			m.Add(x, y, ux*strength, uy*strength)
		}
	}
}
