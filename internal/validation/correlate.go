// Package validation scores how well a group's attention model predicts each
// of its members through leave-one-out cross-validation, and keeps the scores
// in a resumable ledger.
package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ironsheep/gaze-attention-mcp/internal/directed"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// Score is a Pearson correlation and its two-sided p-value.
type Score struct {
	Correlation float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
}

// Correlate returns the Pearson correlation of a and b.
//
// If either input is constant the correlation is undefined and the worst score
// (0, 0) is returned. The p-value tests against zero correlation with a
// Student's t distribution of n-2 degrees of freedom.
func Correlate(a, b []float64) (Score, error) {
	if len(a) != len(b) {
		return Score{}, fmt.Errorf("%w: %d values against %d", directed.ErrShapeMismatch, len(a), len(b))
	}
	if isConstant(a) || isConstant(b) {
		return Score{}, nil
	}
	r := stat.Correlation(a, b, nil)
	r = math.Max(-1, math.Min(1, r))
	return Score{Correlation: r, PValue: pValue(r, len(a))}, nil
}

// CorrelateMasks scores two directed masks by correlating their x and y
// components separately and averaging both scores.
func CorrelateMasks(a, b *directed.Mask) (Score, error) {
	if !a.SameShape(b) {
		return Score{}, fmt.Errorf("%w: %dx%d against %dx%d",
			directed.ErrShapeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	ax, ay := a.Components()
	bx, by := b.Components()
	sx, err := Correlate(ax, bx)
	if err != nil {
		return Score{}, err
	}
	sy, err := Correlate(ay, by)
	if err != nil {
		return Score{}, err
	}
	return Score{
		Correlation: (sx.Correlation + sy.Correlation) / 2,
		PValue:      (sx.PValue + sy.PValue) / 2,
	}, nil
}

// CorrelateFields scores two heat fields cell by cell.
func CorrelateFields(a, b *heat.Field) (Score, error) {
	if !a.SameShape(b) {
		return Score{}, fmt.Errorf("%w: %dx%d against %dx%d",
			directed.ErrShapeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	return Correlate(a.Floats(), b.Floats())
}

func isConstant(values []float64) bool {
	for _, v := range values[min(1, len(values)):] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func pValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := math.Abs(r) * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(t))
}
