// Package config reads the analysis configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
)

// Ledger backends.
const (
	LedgerJSON   = "json"
	LedgerSQLite = "sqlite"
)

// DefaultDataDir is where artifacts are stored when ATTENTION_DATA_DIR is unset.
const DefaultDataDir = "./attention-data"

// Overwrite says which cached results are recomputed. Each stage depends on
// the one before, so recomputing a stage recomputes everything after it.
type Overwrite struct {
	General       bool `json:"general"`
	Accumulation  bool `json:"accumulation"`
	DirectedMasks bool `json:"directed_masks"`
	Validation    bool `json:"validation"`
}

// NewOverwrite applies the cascade general => accumulation => directed masks
// => validation to the requested flags.
func NewOverwrite(general, accumulation, directedMasks, validation bool) Overwrite {
	o := Overwrite{General: general}
	o.Accumulation = accumulation || o.General
	o.DirectedMasks = directedMasks || o.Accumulation
	o.Validation = validation || o.DirectedMasks
	return o
}

// Config is the analysis configuration.
type Config struct {
	Debug bool

	DataDir       string
	LedgerPath    string
	LedgerBackend string

	Overwrite Overwrite

	Grouping       gaze.GroupingKey
	DirectedWeight gaze.WeightPolicy
	HeatWeight     gaze.WeightPolicy

	Extractor  string
	Extraction extraction.Options
	BlurSigma  float64
}

// Load reads the configuration from ATTENTION_* environment variables,
// falling back to defaults for unset ones.
func Load() (*Config, error) {
	cfg := &Config{
		Debug:         strings.EqualFold(os.Getenv("ATTENTION_MCP_LOG_LEVEL"), "debug"),
		DataDir:       os.Getenv("ATTENTION_DATA_DIR"),
		LedgerBackend: strings.ToLower(os.Getenv("ATTENTION_LEDGER_BACKEND")),
		LedgerPath:    os.Getenv("ATTENTION_LEDGER_PATH"),
		Extractor:     os.Getenv("ATTENTION_EXTRACTOR"),
		Extraction:    extraction.DefaultOptions(),
		BlurSigma:     heat.DefaultSigma,
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Extractor == "" {
		cfg.Extractor = extraction.StrategyConcurrentElimination
	}

	switch cfg.LedgerBackend {
	case "", LedgerJSON:
		cfg.LedgerBackend = LedgerJSON
		if cfg.LedgerPath == "" {
			cfg.LedgerPath = filepath.Join(cfg.DataDir, "validation-ledger.json")
		}
	case LedgerSQLite:
		if cfg.LedgerPath == "" {
			cfg.LedgerPath = filepath.Join(cfg.DataDir, "validation-ledger.db")
		}
	default:
		return nil, fmt.Errorf("invalid ATTENTION_LEDGER_BACKEND %q: want %s or %s", cfg.LedgerBackend, LedgerJSON, LedgerSQLite)
	}

	var flags [4]bool
	for i, name := range []string{
		"ATTENTION_OVERWRITE",
		"ATTENTION_OVERWRITE_ACCUMULATION",
		"ATTENTION_OVERWRITE_DIRECTED_MASKS",
		"ATTENTION_OVERWRITE_VALIDATION",
	} {
		v, err := boolEnv(name)
		if err != nil {
			return nil, err
		}
		flags[i] = v
	}
	cfg.Overwrite = NewOverwrite(flags[0], flags[1], flags[2], flags[3])

	var err error
	if cfg.Grouping, err = gaze.ParseGroupingKey(envOr("ATTENTION_GROUPING", string(gaze.GroupByCohort))); err != nil {
		return nil, fmt.Errorf("invalid ATTENTION_GROUPING: %w", err)
	}
	if cfg.DirectedWeight, err = gaze.ParseWeightPolicy(envOr("ATTENTION_DIRECTED_WEIGHT", string(gaze.WeightConstant))); err != nil {
		return nil, fmt.Errorf("invalid ATTENTION_DIRECTED_WEIGHT: %w", err)
	}
	if cfg.HeatWeight, err = gaze.ParseWeightPolicy(envOr("ATTENTION_HEAT_WEIGHT", string(gaze.WeightDuration))); err != nil {
		return nil, fmt.Errorf("invalid ATTENTION_HEAT_WEIGHT: %w", err)
	}
	if cfg.HeatWeight == gaze.WeightDistance {
		return nil, fmt.Errorf("invalid ATTENTION_HEAT_WEIGHT: heatmaps cannot be weighted by %s", gaze.WeightDistance)
	}

	if cfg.Extraction.ValidityThreshold, err = floatEnv("ATTENTION_VALIDITY_THRESHOLD", cfg.Extraction.ValidityThreshold); err != nil {
		return nil, err
	}
	if cfg.Extraction.ValidityRange, err = intEnv("ATTENTION_VALIDITY_RANGE", cfg.Extraction.ValidityRange); err != nil {
		return nil, err
	}
	if cfg.Extraction.TrendWindow, err = intEnv("ATTENTION_TREND_WINDOW", cfg.Extraction.TrendWindow); err != nil {
		return nil, err
	}
	if err := cfg.Extraction.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction options: %w", err)
	}
	if cfg.BlurSigma, err = floatEnv("ATTENTION_BLUR_SIGMA", cfg.BlurSigma); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func boolEnv(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return b, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return f, nil
}
