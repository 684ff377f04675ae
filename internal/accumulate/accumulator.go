// Package accumulate combines per-episode attention models into per-group
// models and persists both through a store.
package accumulate

import (
	"fmt"
	"strings"

	"github.com/ironsheep/gaze-attention-mcp/internal/directed"
	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
	"github.com/ironsheep/gaze-attention-mcp/internal/store"
)

// ConstantHeatIntensity is the weight of each fixation in a constant-weighted
// heatmap.
const ConstantHeatIntensity = 125.0

// Accumulator builds and caches directed masks and heatmaps.
type Accumulator struct {
	Store     store.Store
	Builder   *directed.Builder
	Extractor extraction.Extractor

	// ExtractorSignature identifies Extractor and its options in heat source
	// cache keys. See extraction.Signature.
	ExtractorSignature string

	// HeatWeight weighs fixations when rendering group heatmaps.
	HeatWeight gaze.WeightPolicy

	// Sigma is the Gaussian spread of rendered heatmaps in pixels.
	Sigma float64

	// ForceMasks rebuilds cached episode and group directed masks.
	ForceMasks bool

	// ForceAccumulation re-extracts cached group heat sources.
	ForceAccumulation bool
}

// EpisodeMaskKey returns the store key of an episode's directed mask.
func EpisodeMaskKey(e *gaze.Episode) string {
	return fmt.Sprintf("directed-masks/%s/%d.dmask", e.Subject, e.Index)
}

// GroupMaskKey returns the store key of a group's accumulated directed mask.
func GroupMaskKey(group string) string {
	return "accumulated-directed-masks/" + group + ".dmask"
}

// HeatmapName returns the base name of a group heatmap rendered under policy.
func HeatmapName(group string, policy gaze.WeightPolicy) string {
	return fmt.Sprintf("%s-%s-heatmap", group, policy)
}

// HeatmapKey returns the store key of a rendered group heatmap.
func HeatmapKey(group string, policy gaze.WeightPolicy) string {
	return "accumulated-heatmaps/" + HeatmapName(group, policy) + ".png"
}

// HeatSourcesName returns the cache key of the heat sources of a group
// heatmap. It covers the rendered field, so changes to the group, the weight
// policy or the blur sigma select a new entry, as do changes to the extractor
// signature.
func (a *Accumulator) HeatSourcesName(group string, field *heat.Field) string {
	name := HeatmapName(group, a.HeatWeight) + "-" + extraction.Identity(field)
	if a.ExtractorSignature != "" {
		name += "-" + a.ExtractorSignature
	}
	return name
}

// EpisodeMask returns the directed mask of e, building and persisting it
// unless a cached copy exists and ForceMasks is unset.
func (a *Accumulator) EpisodeMask(e *gaze.Episode) (*directed.Mask, error) {
	key := EpisodeMaskKey(e)
	if !a.ForceMasks && a.Store.Exists(key) {
		return a.loadMask(key)
	}

	m, err := a.Builder.Build(e.Fixations, e.Width, e.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to build directed mask for %s: %w", e.Key(), err)
	}
	if err := a.saveMask(key, m); err != nil {
		return nil, err
	}
	return m, nil
}

// BuildEpisodeMasks builds the directed mask of every episode.
func (a *Accumulator) BuildEpisodeMasks(episodes []*gaze.Episode) error {
	for _, e := range episodes {
		if _, err := a.EpisodeMask(e); err != nil {
			return err
		}
	}
	return nil
}

// LoadEpisodeMask returns the persisted directed mask of e. It never builds
// one: a missing mask is an error wrapping store.ErrNotFound.
func (a *Accumulator) LoadEpisodeMask(e *gaze.Episode) (*directed.Mask, error) {
	return a.loadMask(EpisodeMaskKey(e))
}

// GroupMask returns the accumulated directed mask of g.
//
// A cached group mask is reused unless ForceMasks is set. Otherwise every
// episode mask must already exist; they are summed and the result persisted.
func (a *Accumulator) GroupMask(g gaze.Group) (*directed.Mask, error) {
	key := GroupMaskKey(g.Name)
	if !a.ForceMasks && a.Store.Exists(key) {
		return a.loadMask(key)
	}
	if len(g.Episodes) == 0 {
		return nil, fmt.Errorf("%w: group %s has no episodes", gaze.ErrInvalidInput, g.Name)
	}

	masks := make([]*directed.Mask, 0, len(g.Episodes))
	for _, e := range g.Episodes {
		m, err := a.LoadEpisodeMask(e)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		masks = append(masks, m)
	}
	acc, err := directed.Combine(masks...)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.Name, err)
	}
	if err := a.saveMask(key, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// HeatPoints turns the fixations of episodes into weighted heat points.
//
// Under WeightConstant every fixation weighs ConstantHeatIntensity, under
// WeightDuration its duration, and under WeightOrder its flipped timestamp
// over all given fixations so earlier fixations weigh more. WeightDistance has
// no meaning for single fixations and is rejected.
func HeatPoints(episodes []*gaze.Episode, policy gaze.WeightPolicy) ([]heat.WeightedPoint, error) {
	var all []gaze.Fixation
	for _, e := range episodes {
		all = append(all, e.Fixations...)
	}

	var weigh func(f gaze.Fixation) float64
	switch policy {
	case gaze.WeightConstant:
		weigh = func(gaze.Fixation) float64 { return ConstantHeatIntensity }
	case gaze.WeightDuration:
		weigh = func(f gaze.Fixation) float64 { return f.Duration }
	case gaze.WeightOrder:
		_, last := gaze.TimestampRange(all)
		weigh = func(f gaze.Fixation) float64 { return gaze.FlipTimestamp(f.Timestamp, last) }
	default:
		return nil, fmt.Errorf("%w: weight policy %q cannot weigh heat points", gaze.ErrInvalidInput, policy)
	}

	points := make([]heat.WeightedPoint, len(all))
	for i, f := range all {
		points[i] = heat.WeightedPoint{X: f.X, Y: f.Y, Weight: weigh(f)}
	}
	return points, nil
}

// HeatField renders the fixations of episodes into a normalized heat field.
func (a *Accumulator) HeatField(episodes []*gaze.Episode, policy gaze.WeightPolicy, width, height int) (*heat.Field, error) {
	points, err := HeatPoints(episodes, policy)
	if err != nil {
		return nil, err
	}
	return heat.Rasterize(points, width, height, a.sigma()), nil
}

// GroupHeatSources renders the heatmap of g with HeatWeight, persists it and
// extracts its heat sources through the cached extractor.
func (a *Accumulator) GroupHeatSources(g gaze.Group) ([]heat.Point, error) {
	width, height, err := GroupSize(g)
	if err != nil {
		return nil, err
	}
	field, err := a.HeatField(g.Episodes, a.HeatWeight, width, height)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.Name, err)
	}

	png, err := heat.EncodePNG(field)
	if err != nil {
		return nil, err
	}
	if err := a.Store.Save(HeatmapKey(g.Name, a.HeatWeight), png); err != nil {
		return nil, fmt.Errorf("failed to save heatmap: %w", err)
	}

	cached := &extraction.Cached{Strategy: a.Extractor, Store: a.Store, Force: a.ForceAccumulation}
	points, err := cached.Extract(a.HeatSourcesName(g.Name, field), field)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.Name, err)
	}
	return points, nil
}

// GroupSize returns the stimulus size shared by every episode of g. Episodes
// of different sizes cannot be accumulated.
func GroupSize(g gaze.Group) (int, int, error) {
	if len(g.Episodes) == 0 {
		return 0, 0, fmt.Errorf("%w: group %s has no episodes", gaze.ErrInvalidInput, g.Name)
	}
	w, h := g.Episodes[0].Width, g.Episodes[0].Height
	var odd []string
	for _, e := range g.Episodes[1:] {
		if e.Width != w || e.Height != h {
			odd = append(odd, e.Key())
		}
	}
	if len(odd) > 0 {
		return 0, 0, fmt.Errorf("%w: group %s mixes stimulus sizes (%s differ from %dx%d)",
			directed.ErrShapeMismatch, g.Name, strings.Join(odd, ", "), w, h)
	}
	return w, h, nil
}

func (a *Accumulator) sigma() float64 {
	if a.Sigma == 0 {
		return heat.DefaultSigma
	}
	return a.Sigma
}

func (a *Accumulator) loadMask(key string) (*directed.Mask, error) {
	data, err := a.Store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load directed mask: %w", err)
	}
	m, err := directed.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return m, nil
}

func (a *Accumulator) saveMask(key string, m *directed.Mask) error {
	data, err := directed.Marshal(m)
	if err != nil {
		return err
	}
	if err := a.Store.Save(key, data); err != nil {
		return fmt.Errorf("failed to save directed mask: %w", err)
	}
	return nil
}
