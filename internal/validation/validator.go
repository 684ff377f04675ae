package validation

import (
	"fmt"

	"github.com/ironsheep/gaze-attention-mcp/internal/accumulate"
	"github.com/ironsheep/gaze-attention-mcp/internal/directed"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
)

// Validator runs leave-one-out cross-validation over groups of episodes.
type Validator struct {
	Accumulator *accumulate.Accumulator
	Ledger      Ledger

	// Force recomputes scores that are already in the ledger.
	Force bool

	// HeatWeight weighs fixations in validation heatmaps. Empty means
	// duration weighting.
	HeatWeight gaze.WeightPolicy
}

// Validate scores every episode of g against the rest of the group and
// returns the group's ledger records.
//
// # Algorithm
//
// Directed masks: the episode's mask is subtracted from the group's
// accumulated mask and the remainder is correlated with the episode's mask.
// Every episode mask must already exist.
//
// Heatmaps: the fixations of all other episodes and those of the episode
// alone are each rendered into a heat field and the two fields are correlated.
//
// Scores already in the ledger are kept unless Force is set. The ledger is
// written after every score, so an interrupted run resumes where it stopped.
func (v *Validator) Validate(g gaze.Group) ([]Record, error) {
	if err := v.validateDirectedMasks(g); err != nil {
		return nil, err
	}
	if err := v.validateHeatmaps(g); err != nil {
		return nil, err
	}
	return v.Ledger.Records(g.Name)
}

func (v *Validator) validateDirectedMasks(g gaze.Group) error {
	var groupMask *directed.Mask
	for _, e := range g.Episodes {
		rec, err := v.record(g.Name, e)
		if err != nil {
			return err
		}
		if rec.DirectedMask != nil && !v.Force {
			continue
		}

		if groupMask == nil {
			if groupMask, err = v.Accumulator.GroupMask(g); err != nil {
				return err
			}
		}
		own, err := v.Accumulator.LoadEpisodeMask(e)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}
		rest, err := directed.Subtract(groupMask, own)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}
		score, err := CorrelateMasks(rest, own)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}

		rec.DirectedMask = &score
		if err := v.Ledger.Put(rec); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateHeatmaps(g gaze.Group) error {
	weight := v.HeatWeight
	if weight == "" {
		weight = gaze.WeightDuration
	}

	for i, e := range g.Episodes {
		rec, err := v.record(g.Name, e)
		if err != nil {
			return err
		}
		if rec.Heatmap != nil && !v.Force {
			continue
		}

		width, height, err := accumulate.GroupSize(g)
		if err != nil {
			return err
		}
		rest := make([]*gaze.Episode, 0, len(g.Episodes)-1)
		rest = append(rest, g.Episodes[:i]...)
		rest = append(rest, g.Episodes[i+1:]...)

		own, err := v.Accumulator.HeatField([]*gaze.Episode{e}, weight, width, height)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}
		others, err := v.Accumulator.HeatField(rest, weight, width, height)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}
		score, err := CorrelateFields(others, own)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", e.Key(), err)
		}

		rec.Heatmap = &score
		if err := v.Ledger.Put(rec); err != nil {
			return err
		}
	}
	return nil
}

// record returns the ledger record of e in group, or a fresh one.
func (v *Validator) record(group string, e *gaze.Episode) (Record, error) {
	rec, ok, err := v.Ledger.Get(group, e.Subject, e.Index)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read ledger: %w", err)
	}
	if !ok {
		rec = Record{Group: group, Subject: e.Subject, Index: e.Index}
	}
	return rec, nil
}
