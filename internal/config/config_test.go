package config

import (
	"path/filepath"
	"testing"

	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

var allVars = []string{
	"ATTENTION_MCP_LOG_LEVEL",
	"ATTENTION_DATA_DIR",
	"ATTENTION_LEDGER_PATH",
	"ATTENTION_LEDGER_BACKEND",
	"ATTENTION_OVERWRITE",
	"ATTENTION_OVERWRITE_ACCUMULATION",
	"ATTENTION_OVERWRITE_DIRECTED_MASKS",
	"ATTENTION_OVERWRITE_VALIDATION",
	"ATTENTION_GROUPING",
	"ATTENTION_DIRECTED_WEIGHT",
	"ATTENTION_HEAT_WEIGHT",
	"ATTENTION_EXTRACTOR",
	"ATTENTION_VALIDITY_THRESHOLD",
	"ATTENTION_VALIDITY_RANGE",
	"ATTENTION_TREND_WINDOW",
	"ATTENTION_BLUR_SIGMA",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Debug {
		t.Error("debug should default to off")
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.LedgerBackend != LedgerJSON || cfg.LedgerPath != filepath.Join(DefaultDataDir, "validation-ledger.json") {
		t.Errorf("ledger = %s at %s", cfg.LedgerBackend, cfg.LedgerPath)
	}
	if cfg.Overwrite != (Overwrite{}) {
		t.Errorf("Overwrite = %+v", cfg.Overwrite)
	}
	if cfg.Grouping != gaze.GroupByCohort || cfg.DirectedWeight != gaze.WeightConstant || cfg.HeatWeight != gaze.WeightDuration {
		t.Errorf("grouping %s, directed %s, heat %s", cfg.Grouping, cfg.DirectedWeight, cfg.HeatWeight)
	}
	if cfg.Extractor != extraction.StrategyConcurrentElimination || cfg.Extraction != extraction.DefaultOptions() {
		t.Errorf("extractor %s %+v", cfg.Extractor, cfg.Extraction)
	}
	if cfg.BlurSigma != heat.DefaultSigma {
		t.Errorf("BlurSigma = %v", cfg.BlurSigma)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATTENTION_MCP_LOG_LEVEL", "DEBUG")
	t.Setenv("ATTENTION_DATA_DIR", "/tmp/attention")
	t.Setenv("ATTENTION_LEDGER_BACKEND", "SQLite")
	t.Setenv("ATTENTION_GROUPING", "specification")
	t.Setenv("ATTENTION_DIRECTED_WEIGHT", "order")
	t.Setenv("ATTENTION_HEAT_WEIGHT", "constant")
	t.Setenv("ATTENTION_EXTRACTOR", extraction.StrategySmoothedMaxima)
	t.Setenv("ATTENTION_VALIDITY_THRESHOLD", "0.5")
	t.Setenv("ATTENTION_VALIDITY_RANGE", "3")
	t.Setenv("ATTENTION_TREND_WINDOW", "12")
	t.Setenv("ATTENTION_BLUR_SIGMA", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected debug")
	}
	if cfg.LedgerBackend != LedgerSQLite || cfg.LedgerPath != filepath.Join("/tmp/attention", "validation-ledger.db") {
		t.Errorf("ledger = %s at %s", cfg.LedgerBackend, cfg.LedgerPath)
	}
	if cfg.Grouping != gaze.GroupBySpecification || cfg.DirectedWeight != gaze.WeightOrder || cfg.HeatWeight != gaze.WeightConstant {
		t.Errorf("grouping %s, directed %s, heat %s", cfg.Grouping, cfg.DirectedWeight, cfg.HeatWeight)
	}
	want := extraction.Options{ValidityThreshold: 0.5, ValidityRange: 3, TrendWindow: 12}
	if cfg.Extractor != extraction.StrategySmoothedMaxima || cfg.Extraction != want {
		t.Errorf("extractor %s %+v", cfg.Extractor, cfg.Extraction)
	}
	if cfg.BlurSigma != 20 {
		t.Errorf("BlurSigma = %v", cfg.BlurSigma)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, value string
	}{
		{"ATTENTION_LEDGER_BACKEND", "postgres"},
		{"ATTENTION_OVERWRITE", "maybe"},
		{"ATTENTION_GROUPING", "age"},
		{"ATTENTION_DIRECTED_WEIGHT", "loudness"},
		{"ATTENTION_HEAT_WEIGHT", "distance"},
		{"ATTENTION_VALIDITY_THRESHOLD", "1.5"},
		{"ATTENTION_VALIDITY_RANGE", "two"},
		{"ATTENTION_TREND_WINDOW", "1"},
		{"ATTENTION_BLUR_SIGMA", "wide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.name, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.name, tt.value)
			}
		})
	}
}

func TestOverwriteCascade(t *testing.T) {
	tests := []struct {
		name string
		in   [4]bool
		want Overwrite
	}{
		{"none", [4]bool{}, Overwrite{}},
		{"general", [4]bool{true, false, false, false}, Overwrite{true, true, true, true}},
		{"accumulation", [4]bool{false, true, false, false}, Overwrite{false, true, true, true}},
		{"directed masks", [4]bool{false, false, true, false}, Overwrite{false, false, true, true}},
		{"validation", [4]bool{false, false, false, true}, Overwrite{false, false, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewOverwrite(tt.in[0], tt.in[1], tt.in[2], tt.in[3])
			if got != tt.want {
				t.Errorf("NewOverwrite = %+v, want %+v", got, tt.want)
			}
		})
	}

	clearEnv(t)
	t.Setenv("ATTENTION_OVERWRITE_ACCUMULATION", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Overwrite.DirectedMasks || !cfg.Overwrite.Validation || cfg.Overwrite.General {
		t.Errorf("Overwrite = %+v", cfg.Overwrite)
	}
}
