package validation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/gaze-attention-mcp/internal/accumulate"
	"github.com/ironsheep/gaze-attention-mcp/internal/directed"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
	"github.com/ironsheep/gaze-attention-mcp/internal/store"
)

func TestCorrelate(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []float64
		wantR      float64
		wantP      float64
		pTolerance float64
	}{
		{"perfect", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1, 0, 0},
		{"inverse", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1, 0, 0},
		{"partial", []float64{1, 2, 3, 4, 5}, []float64{2, 1, 4, 3, 5}, 0.8, 0.104, 0.002},
		{"two values", []float64{1, 2}, []float64{3, 5}, 1, 1, 0},
		{"constant", []float64{3, 3, 3}, []float64{1, 2, 3}, 0, 0, 0},
		{"empty", nil, nil, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Correlate(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Correlate failed: %v", err)
			}
			if math.Abs(s.Correlation-tt.wantR) > 1e-9 {
				t.Errorf("correlation = %v, want %v", s.Correlation, tt.wantR)
			}
			if math.Abs(s.PValue-tt.wantP) > tt.pTolerance+1e-9 {
				t.Errorf("p-value = %v, want %v", s.PValue, tt.wantP)
			}
		})
	}

	if _, err := Correlate([]float64{1, 2}, []float64{1, 2, 3}); !errors.Is(err, directed.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestCorrelateMasks(t *testing.T) {
	a := directed.NewMask(3, 2)
	b := directed.NewMask(3, 2)
	for i := range a.Data {
		a.Data[i] = float64(i*i) - 4
		b.Data[i] = 2*a.Data[i] + 1
	}
	s, err := CorrelateMasks(a, b)
	if err != nil {
		t.Fatalf("CorrelateMasks failed: %v", err)
	}
	if math.Abs(s.Correlation-1) > 1e-9 {
		t.Errorf("correlation = %v, want 1", s.Correlation)
	}

	// A zero mask has no defined correlation.
	s, err = CorrelateMasks(a, directed.NewMask(3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if s != (Score{}) {
		t.Errorf("zero mask score = %+v", s)
	}

	if _, err := CorrelateMasks(a, directed.NewMask(2, 3)); !errors.Is(err, directed.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestCorrelateFields(t *testing.T) {
	a, _ := heat.FromRows([][]uint8{{0, 10}, {20, 30}})
	b, _ := heat.FromRows([][]uint8{{5, 15}, {25, 35}})
	s, err := CorrelateFields(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Correlation-1) > 1e-9 {
		t.Errorf("correlation = %v, want 1", s.Correlation)
	}
	if _, err := CorrelateFields(a, heat.NewField(4, 1)); !errors.Is(err, directed.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{0.5}, Summary{Count: 1, Mean: 0.5}},
		{"spread", []float64{0.2, 0.4, 0.6}, Summary{Count: 3, Mean: 0.4, StdDev: 0.2, CV: 50}},
		{"zero mean", []float64{-1, 1}, Summary{Count: 2, StdDev: math.Sqrt2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			if got.Count != tt.want.Count ||
				math.Abs(got.Mean-tt.want.Mean) > 1e-9 ||
				math.Abs(got.StdDev-tt.want.StdDev) > 1e-9 ||
				math.Abs(got.CV-tt.want.CV) > 1e-6 {
				t.Errorf("Summarize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	records := []Record{
		{Subject: "a", Index: 1, DirectedMask: &Score{Correlation: 0.2}, Heatmap: &Score{Correlation: 0.4}},
		{Subject: "b", Index: 1, DirectedMask: &Score{Correlation: 0.6}, Heatmap: &Score{Correlation: 0.8}},
		{Subject: "c", Index: 1, DirectedMask: &Score{Correlation: 0.9}},
	}
	rep := Report("g", records)
	if rep.Group != "g" || len(rep.Episodes) != 2 || rep.Incomplete != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if math.Abs(rep.Episodes[0].Average-0.3) > 1e-9 {
		t.Errorf("episode average = %v, want 0.3", rep.Episodes[0].Average)
	}
	if math.Abs(rep.DirectedMask.Mean-0.4) > 1e-9 || math.Abs(rep.Heatmap.Mean-0.6) > 1e-9 {
		t.Errorf("means = %v, %v", rep.DirectedMask.Mean, rep.Heatmap.Mean)
	}
	if math.Abs(rep.Average.Mean-0.5) > 1e-9 {
		t.Errorf("average mean = %v, want 0.5", rep.Average.Mean)
	}
}

type ledgerFactory func(t *testing.T, path string) Ledger

func ledgerBackends() map[string]ledgerFactory {
	return map[string]ledgerFactory{
		"json": func(t *testing.T, path string) Ledger {
			t.Helper()
			l, err := OpenJSONLedger(path + ".json")
			if err != nil {
				t.Fatalf("OpenJSONLedger failed: %v", err)
			}
			return l
		},
		"sqlite": func(t *testing.T, path string) Ledger {
			t.Helper()
			l, err := OpenSQLiteLedger(path + ".db")
			if err != nil {
				t.Fatalf("OpenSQLiteLedger failed: %v", err)
			}
			return l
		},
	}
}

func TestLedgerBackends(t *testing.T) {
	for name, open := range ledgerBackends() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger")
			l := open(t, path)

			if _, ok, err := l.Get("g", "s1", 1); err != nil || ok {
				t.Fatalf("Get on empty ledger = %v, %v", ok, err)
			}

			if err := l.Put(Record{Group: "g", Subject: "s2", Index: 1, Heatmap: &Score{Correlation: 0.5, PValue: 0.01}}); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := l.Put(Record{Group: "g", Subject: "s1", Index: 2, DirectedMask: &Score{Correlation: -0.25}}); err != nil {
				t.Fatal(err)
			}
			if err := l.Put(Record{Group: "other", Subject: "s1", Index: 2}); err != nil {
				t.Fatal(err)
			}

			first, ok, err := l.Get("g", "s2", 1)
			if err != nil || !ok {
				t.Fatalf("Get = %v, %v", ok, err)
			}
			if first.ID == "" || first.Heatmap == nil || first.Heatmap.PValue != 0.01 || first.DirectedMask != nil {
				t.Errorf("unexpected record %+v", first)
			}

			// Updating keeps the record's identity.
			id := first.ID
			first.DirectedMask = &Score{Correlation: 0.75}
			first.ID = ""
			if err := l.Put(first); err != nil {
				t.Fatal(err)
			}
			if err := l.Close(); err != nil {
				t.Fatal(err)
			}

			l = open(t, path)
			defer l.Close()
			records, err := l.Records("g")
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 2 {
				t.Fatalf("got %d records, want 2", len(records))
			}
			if records[0].Subject != "s1" || records[1].Subject != "s2" {
				t.Errorf("records not ordered by subject: %s, %s", records[0].Subject, records[1].Subject)
			}
			updated := records[1]
			if updated.ID != id || !updated.Complete() || updated.DirectedMask.Correlation != 0.75 {
				t.Errorf("unexpected updated record %+v", updated)
			}
		})
	}
}

func TestLedgerKeepsIDOnUpdate(t *testing.T) {
	for name, open := range ledgerBackends() {
		t.Run(name, func(t *testing.T) {
			l := open(t, filepath.Join(t.TempDir(), "ledger"))
			defer l.Close()

			if err := l.Put(Record{Group: "g", Subject: "s", Index: 1}); err != nil {
				t.Fatal(err)
			}
			before, _, _ := l.Get("g", "s", 1)
			if err := l.Put(Record{Group: "g", Subject: "s", Index: 1, Heatmap: &Score{}}); err != nil {
				t.Fatal(err)
			}
			after, _, _ := l.Get("g", "s", 1)
			if before.ID != after.ID {
				t.Errorf("ID changed from %s to %s", before.ID, after.ID)
			}
			if after.Heatmap == nil {
				t.Error("update was not applied")
			}
		})
	}
}

func TestJSONLedgerCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenJSONLedger(path); !errors.Is(err, ErrCorruptLedger) {
		t.Errorf("expected ErrCorruptLedger, got %v", err)
	}
}

type countingLedger struct {
	Ledger
	puts int
}

func (c *countingLedger) Put(r Record) error {
	c.puts++
	return c.Ledger.Put(r)
}

func sameEpisodes(subjects ...string) []*gaze.Episode {
	var out []*gaze.Episode
	for _, s := range subjects {
		out = append(out, &gaze.Episode{
			Subject: s,
			Index:   1,
			Cohort:  "a",
			Width:   40,
			Height:  30,
			Fixations: []gaze.Fixation{
				{Timestamp: 0, Duration: 100, X: 0.2, Y: 0.3},
				{Timestamp: 100, Duration: 300, X: 0.7, Y: 0.4},
				{Timestamp: 200, Duration: 200, X: 0.5, Y: 0.8},
			},
		})
	}
	return out
}

func newTestValidator(t *testing.T, s store.Store) (*Validator, *countingLedger) {
	t.Helper()
	l, err := OpenJSONLedger(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}
	counter := &countingLedger{Ledger: l}
	acc := &accumulate.Accumulator{
		Store:   s,
		Builder: directed.NewBuilder(gaze.WeightConstant),
		Sigma:   3,
	}
	return &Validator{Accumulator: acc, Ledger: counter}, counter
}

func TestValidateIdenticalEpisodes(t *testing.T) {
	v, counter := newTestValidator(t, store.NewMemoryStore())
	episodes := sameEpisodes("s1", "s2")
	if err := v.Accumulator.BuildEpisodeMasks(episodes); err != nil {
		t.Fatal(err)
	}
	group := gaze.Group{Name: "cohort-a", Episodes: episodes}

	records, err := v.Validate(group)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if !r.Complete() {
			t.Fatalf("record %s incomplete", r.Subject)
		}
		if math.Abs(r.DirectedMask.Correlation-1) > 1e-9 {
			t.Errorf("%s directed mask correlation = %v, want 1", r.Subject, r.DirectedMask.Correlation)
		}
		if math.Abs(r.Heatmap.Correlation-1) > 1e-9 {
			t.Errorf("%s heatmap correlation = %v, want 1", r.Subject, r.Heatmap.Correlation)
		}
	}
	if counter.puts != 4 {
		t.Errorf("ledger written %d times, want 4", counter.puts)
	}

	// Cached scores are skipped.
	if _, err := v.Validate(group); err != nil {
		t.Fatal(err)
	}
	if counter.puts != 4 {
		t.Errorf("second run wrote %d times, want none", counter.puts-4)
	}

	v.Force = true
	if _, err := v.Validate(group); err != nil {
		t.Fatal(err)
	}
	if counter.puts != 8 {
		t.Errorf("forced run wrote %d times, want 4", counter.puts-4)
	}
}

func TestValidateSingleEpisodeGroup(t *testing.T) {
	v, _ := newTestValidator(t, store.NewMemoryStore())
	episodes := sameEpisodes("s1")
	if err := v.Accumulator.BuildEpisodeMasks(episodes); err != nil {
		t.Fatal(err)
	}
	records, err := v.Validate(gaze.Group{Name: "g", Episodes: episodes})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	// Leaving out the only member leaves nothing to correlate with.
	if len(records) != 1 || *records[0].DirectedMask != (Score{}) || *records[0].Heatmap != (Score{}) {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestValidateMissingEpisodeMask(t *testing.T) {
	v, _ := newTestValidator(t, store.NewMemoryStore())
	episodes := sameEpisodes("s1", "s2")
	if _, err := v.Accumulator.EpisodeMask(episodes[0]); err != nil {
		t.Fatal(err)
	}
	_, err := v.Validate(gaze.Group{Name: "g", Episodes: episodes})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
