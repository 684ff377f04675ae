package validation

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of a set of correlations. A low standard
// deviation suggests the group shares an attention pattern.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	// CV is the coefficient of variation in percent.
	CV float64 `json:"cv"`
}

// EpisodeReport is the scores of one episode.
type EpisodeReport struct {
	Subject      string  `json:"subject"`
	Index        int     `json:"index"`
	DirectedMask Score   `json:"directed_mask"`
	Heatmap      Score   `json:"heatmap"`
	Average      float64 `json:"average"`
}

// GroupReport summarizes the validation of one group.
type GroupReport struct {
	Group        string          `json:"group"`
	Episodes     []EpisodeReport `json:"episodes"`
	DirectedMask Summary         `json:"directed_mask"`
	Heatmap      Summary         `json:"heatmap"`
	Average      Summary         `json:"average"`

	// Incomplete counts records that still miss a score and were left out.
	Incomplete int `json:"incomplete"`
}

// Report builds the report of group from its ledger records.
func Report(group string, records []Record) GroupReport {
	rep := GroupReport{Group: group, Episodes: make([]EpisodeReport, 0, len(records))}
	var dm, hm, avg []float64
	for _, r := range records {
		if !r.Complete() {
			rep.Incomplete++
			continue
		}
		a := (r.DirectedMask.Correlation + r.Heatmap.Correlation) / 2
		rep.Episodes = append(rep.Episodes, EpisodeReport{
			Subject:      r.Subject,
			Index:        r.Index,
			DirectedMask: *r.DirectedMask,
			Heatmap:      *r.Heatmap,
			Average:      a,
		})
		dm = append(dm, r.DirectedMask.Correlation)
		hm = append(hm, r.Heatmap.Correlation)
		avg = append(avg, a)
	}
	rep.DirectedMask = Summarize(dm)
	rep.Heatmap = Summarize(hm)
	rep.Average = Summarize(avg)
	return rep
}

// Summarize returns the mean, sample standard deviation and coefficient of
// variation of values. The deviation is 0 for fewer than two values and the
// coefficient is 0 when the mean is 0.
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	if s.Mean != 0 {
		s.CV = s.StdDev / s.Mean * 100
	}
	return s
}
