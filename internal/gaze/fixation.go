package gaze

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput reports fixation data that violates a precondition of the
// attention models, such as a zero-length saccade.
var ErrInvalidInput = errors.New("invalid gaze input")

// Fixation is a stable gaze point on the display.
type Fixation struct {
	Timestamp int64   `json:"timestamp"` // monotonic, microseconds
	Duration  float64 `json:"duration"`  // milliseconds, >= 0
	X         float64 `json:"x"`         // normalized to [0,1]
	Y         float64 `json:"y"`         // normalized to [0,1]
}

// OnDisplay reports whether the fixation lies inside the normalized display
// area. Trackers report gaze outside the display when subjects look away.
func (f Fixation) OnDisplay() bool {
	return f.X >= 0 && f.X <= 1 && f.Y >= 0 && f.Y <= 1
}

// Episode is one subject's single viewing of one stimulus.
type Episode struct {
	Subject       string     `json:"subject"`
	Index         int        `json:"index"`
	Cohort        string     `json:"cohort"`
	Specification string     `json:"specification,omitempty"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Fixations     []Fixation `json:"-"`
}

// Key identifies the episode within a data set as "subject/index".
func (e *Episode) Key() string {
	return fmt.Sprintf("%s/%d", e.Subject, e.Index)
}

// OutlierThreshold is the z-score above which a trailing fixation is treated
// as lingering attention rather than exploration.
const OutlierThreshold = 1.2

// Filter prepares a fixation sequence for the attention models.
//
// Off-display fixations are dropped first. When at least three remain, the
// first fixation is dropped since it precedes any reaction to the stimulus, and
// the last fixation is dropped if it is the longest and its duration z-score
// exceeds OutlierThreshold. Finally consecutive fixations at identical
// positions are collapsed so every saccade has a non-zero length.
//
// The input slice is not modified.
func Filter(fixations []Fixation) []Fixation {
	out := make([]Fixation, 0, len(fixations))
	for _, f := range fixations {
		if f.OnDisplay() {
			out = append(out, f)
		}
	}

	if len(out) >= 3 {
		out = out[1:]
		out = dropTrailingOutlier(out)
	}

	deduped := out[:0:0]
	for i, f := range out {
		if i > 0 && f.X == out[i-1].X && f.Y == out[i-1].Y {
			continue
		}
		deduped = append(deduped, f)
	}
	return deduped
}

func dropTrailingOutlier(fixations []Fixation) []Fixation {
	durations := make([]float64, len(fixations))
	for i, f := range fixations {
		durations[i] = f.Duration
	}
	last := durations[len(durations)-1]
	for _, d := range durations {
		if d > last {
			return fixations
		}
	}

	mean, std := stat.PopMeanStdDev(durations, nil)
	if std == 0 {
		return fixations
	}
	if stat.StdScore(last, mean, std) > OutlierThreshold {
		return fixations[:len(fixations)-1]
	}
	return fixations
}

// DurationRange returns the shortest and longest fixation durations.
func DurationRange(fixations []Fixation) (lo, hi float64) {
	for i, f := range fixations {
		if i == 0 || f.Duration < lo {
			lo = f.Duration
		}
		if i == 0 || f.Duration > hi {
			hi = f.Duration
		}
	}
	return lo, hi
}

// TimestampRange returns the earliest and latest fixation timestamps.
func TimestampRange(fixations []Fixation) (lo, hi int64) {
	for i, f := range fixations {
		if i == 0 || f.Timestamp < lo {
			lo = f.Timestamp
		}
		if i == 0 || f.Timestamp > hi {
			hi = f.Timestamp
		}
	}
	return lo, hi
}
