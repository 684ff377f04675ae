package gaze

import (
	"fmt"
	"math"
	"strings"
)

// WeightPolicy selects how much a fixation or saccade contributes to an
// attention model.
type WeightPolicy string

const (
	// WeightConstant weighs every contribution equally.
	WeightConstant WeightPolicy = "constant"
	// WeightDuration weighs by fixation duration.
	WeightDuration WeightPolicy = "duration"
	// WeightOrder favours earlier fixations.
	WeightOrder WeightPolicy = "order"
	// WeightDistance weighs a saccade by its length. Heatmaps have no
	// saccades and reject it.
	WeightDistance WeightPolicy = "distance"
)

// ParseWeightPolicy converts a policy name. Matching ignores case and
// surrounding space.
func ParseWeightPolicy(s string) (WeightPolicy, error) {
	p := WeightPolicy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case WeightConstant, WeightDuration, WeightOrder, WeightDistance:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown weight policy %q", ErrInvalidInput, s)
}

// Normalize maps v from [lo, hi] onto [outLo, outHi]. A degenerate input range
// maps everything to outHi.
func Normalize(v, lo, hi, outLo, outHi float64) float64 {
	if lo == hi {
		return outHi
	}
	return (v-lo)/(hi-lo)*(outHi-outLo) + outLo
}

// FlipTimestamp reverses timestamp order so that earlier fixations get larger
// values. The latest fixation maps to 1.
func FlipTimestamp(ts, latest int64) float64 {
	return math.Abs(float64(ts - (latest + 1)))
}
