package extraction

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
	"github.com/ironsheep/gaze-attention-mcp/internal/store"
)

// Extractor turns a heat field into heat sources. Implementations never modify
// the field they are given.
type Extractor interface {
	Extract(field *heat.Field) ([]heat.Point, error)
}

// Strategy names accepted by New.
const (
	StrategyConcurrentElimination = "concurrent-elimination"
	StrategySequentialElimination = "sequential-elimination"
	StrategySmoothedMaxima        = "smoothed-maxima"
	StrategyRowColumnMaxima       = "row-column-maxima"
)

// Default tuning for the elimination strategies.
const (
	DefaultValidityThreshold = 0.6
	DefaultValidityRange     = 2
	DefaultTrendWindow       = 80
)

// Options tunes the elimination strategies.
type Options struct {
	// ValidityThreshold is the share of in-bounds neighbours that must be hot
	// for a maximum to count as a heat source.
	ValidityThreshold float64

	// ValidityRange is the Manhattan radius of the neighbourhood sampled by
	// the validity check.
	ValidityRange int

	// TrendWindow is the number of samples a walk looks back to decide whether
	// intensity is still falling.
	TrendWindow int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		ValidityThreshold: DefaultValidityThreshold,
		ValidityRange:     DefaultValidityRange,
		TrendWindow:       DefaultTrendWindow,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.ValidityThreshold < 0 || o.ValidityThreshold > 1 {
		return fmt.Errorf("validity threshold %v outside [0,1]", o.ValidityThreshold)
	}
	if o.ValidityRange < 1 {
		return fmt.Errorf("validity range must be at least 1, got %d", o.ValidityRange)
	}
	if o.TrendWindow < 2 {
		return fmt.Errorf("trend window must be at least 2, got %d", o.TrendWindow)
	}
	return nil
}

// ErrUnknownStrategy is returned by New for unrecognized strategy names.
var ErrUnknownStrategy = errors.New("unknown extraction strategy")

// Strategies lists every strategy name accepted by New.
func Strategies() []string {
	return []string{
		StrategyConcurrentElimination,
		StrategySequentialElimination,
		StrategySmoothedMaxima,
		StrategyRowColumnMaxima,
	}
}

// New returns the extractor registered under name. An empty name selects
// concurrent elimination.
func New(name string, opts Options) (Extractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case "", StrategyConcurrentElimination:
		return &ConcurrentElimination{Options: opts}, nil
	case StrategySequentialElimination:
		return &SequentialElimination{Options: opts}, nil
	case StrategySmoothedMaxima:
		return NewSmoothedMaxima(), nil
	case StrategyRowColumnMaxima:
		return NewRowColumnMaxima(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// isValidSource reports whether p spreads heat: at least the configured share
// of its in-bounds neighbours must be non-zero. The required count is the
// floor of the share.
func isValidSource(f *heat.Field, p image.Point, opts Options) bool {
	hot, total := 0, 0
	for _, n := range heat.NeighboursInRange(p, opts.ValidityRange) {
		if !f.InBounds(n.X, n.Y) {
			continue
		}
		total++
		if f.At(n.X, n.Y) > 0 {
			hot++
		}
	}
	return hot >= int(float64(total)*opts.ValidityThreshold)
}

// ArtifactKey returns the store key of the heat source artifact for key.
func ArtifactKey(key string) string {
	return "heat-sources/" + key + "-heat-sources.csv"
}

// Signature names a strategy together with the options that affect its
// result. An empty strategy is concurrent elimination.
func Signature(strategy string, opts Options) string {
	if strategy == "" {
		strategy = StrategyConcurrentElimination
	}
	return fmt.Sprintf("%s-t%s-r%d-w%d", strategy,
		strconv.FormatFloat(opts.ValidityThreshold, 'g', -1, 64), opts.ValidityRange, opts.TrendWindow)
}

// Cached wraps an extractor with a persistent result cache.
type Cached struct {
	Strategy Extractor
	Store    store.Store

	// Force recomputes even when an artifact already exists.
	Force bool
}

// Extract returns the heat sources for field, sorted ascending by intensity.
//
// key names the input, typically the raster file name without extension or
// the result of Identity. When an artifact for key exists and Force is unset
// it is parsed and returned without running the strategy. Otherwise the
// strategy runs and its result is persisted.
func (c *Cached) Extract(key string, field *heat.Field) ([]heat.Point, error) {
	artifact := ArtifactKey(key)
	if !c.Force && c.Store.Exists(artifact) {
		data, err := c.Store.Load(artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to load heat sources: %w", err)
		}
		points, err := heat.UnmarshalPoints(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", artifact, err)
		}
		heat.SortPoints(points)
		return points, nil
	}

	points, err := c.Strategy.Extract(field)
	if err != nil {
		return nil, err
	}
	heat.SortPoints(points)

	data, err := heat.MarshalPoints(points)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Save(artifact, data); err != nil {
		return nil, fmt.Errorf("failed to save heat sources: %w", err)
	}
	return points, nil
}

// Identity returns a content address for an in-memory field.
func Identity(f *heat.Field) string {
	h := sha256.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(f.Width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(f.Height))
	h.Write(dims[:])
	h.Write(f.Pix)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
