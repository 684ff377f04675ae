// Package pipeline runs a complete attention analysis over an episode
// manifest: directed masks are built per episode, accumulated per group,
// cross-validated, and summarized.
package pipeline

import (
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/gaze-attention-mcp/internal/accumulate"
	"github.com/ironsheep/gaze-attention-mcp/internal/config"
	"github.com/ironsheep/gaze-attention-mcp/internal/directed"
	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
	"github.com/ironsheep/gaze-attention-mcp/internal/store"
	"github.com/ironsheep/gaze-attention-mcp/internal/validation"
)

// ErrNotLoaded is returned by the stages when no manifest has been loaded.
var ErrNotLoaded = errors.New("no episodes loaded")

// GroupResult is the accumulation outcome of one group.
type GroupResult struct {
	Group       string       `json:"group"`
	Episodes    int          `json:"episodes"`
	HeatSources []heat.Point `json:"heat_sources"`
	Heatmap     string       `json:"heatmap"`
	Mask        string       `json:"directed_mask"`
}

// Pipeline holds the components of one analysis.
type Pipeline struct {
	Config      *config.Config
	Store       store.Store
	Ledger      validation.Ledger
	Accumulator *accumulate.Accumulator
	Validator   *validation.Validator

	episodes []*gaze.Episode
	groups   []gaze.Group
}

// Open creates the artifact store and ledger described by cfg and wires a
// pipeline on top of them.
func Open(cfg *config.Config) (*Pipeline, error) {
	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	ledger, err := OpenLedger(cfg)
	if err != nil {
		return nil, err
	}
	p, err := New(cfg, st, ledger)
	if err != nil {
		ledger.Close()
		return nil, err
	}
	return p, nil
}

// OpenLedger opens the ledger backend selected by cfg.
func OpenLedger(cfg *config.Config) (validation.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerSQLite:
		return validation.OpenSQLiteLedger(cfg.LedgerPath)
	case config.LedgerJSON, "":
		return validation.OpenJSONLedger(cfg.LedgerPath)
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}

// New wires a pipeline from existing components.
func New(cfg *config.Config, st store.Store, ledger validation.Ledger) (*Pipeline, error) {
	ex, err := extraction.New(cfg.Extractor, cfg.Extraction)
	if err != nil {
		return nil, err
	}
	acc := &accumulate.Accumulator{
		Store:              st,
		Builder:            directed.NewBuilder(cfg.DirectedWeight),
		Extractor:          ex,
		ExtractorSignature: extraction.Signature(cfg.Extractor, cfg.Extraction),
		HeatWeight:         cfg.HeatWeight,
		Sigma:              cfg.BlurSigma,
		ForceMasks:         cfg.Overwrite.DirectedMasks,
		ForceAccumulation:  cfg.Overwrite.Accumulation,
	}
	return &Pipeline{
		Config:      cfg,
		Store:       st,
		Ledger:      ledger,
		Accumulator: acc,
		Validator: &validation.Validator{
			Accumulator: acc,
			Ledger:      ledger,
			Force:       cfg.Overwrite.Validation,
		},
	}, nil
}

// Close releases the ledger.
func (p *Pipeline) Close() error {
	return p.Ledger.Close()
}

// Load reads the episodes of a manifest and groups them. With filter set the
// fixation filter is applied to every episode.
func (p *Pipeline) Load(manifest string, filter bool) ([]gaze.Group, error) {
	episodes, err := gaze.LoadManifest(manifest, filter)
	if err != nil {
		return nil, err
	}
	p.episodes = episodes
	p.groups = gaze.GroupEpisodes(episodes, p.Config.Grouping)
	log.Printf("Loaded %d episodes in %d groups from %s", len(episodes), len(p.groups), manifest)
	return p.groups, nil
}

// Groups returns the groups of the loaded manifest.
func (p *Pipeline) Groups() []gaze.Group {
	return p.groups
}

// Group returns the loaded group called name.
func (p *Pipeline) Group(name string) (gaze.Group, error) {
	if len(p.groups) == 0 {
		return gaze.Group{}, ErrNotLoaded
	}
	g, ok := gaze.Find(p.groups, name)
	if !ok {
		return gaze.Group{}, fmt.Errorf("%w: unknown group %q", gaze.ErrInvalidInput, name)
	}
	return g, nil
}

// BuildMasks builds the directed mask of every loaded episode.
func (p *Pipeline) BuildMasks() error {
	if len(p.episodes) == 0 {
		return ErrNotLoaded
	}
	for _, e := range p.episodes {
		if p.Config.Debug {
			log.Printf("Building directed mask for %s", e.Key())
		}
		if _, err := p.Accumulator.EpisodeMask(e); err != nil {
			return err
		}
	}
	log.Printf("Built %d directed masks", len(p.episodes))
	return nil
}

// Accumulate builds the accumulated directed mask and heat sources of every
// group. Episode masks must have been built.
func (p *Pipeline) Accumulate() ([]GroupResult, error) {
	if len(p.groups) == 0 {
		return nil, ErrNotLoaded
	}
	results := make([]GroupResult, 0, len(p.groups))
	for _, g := range p.groups {
		r, err := p.AccumulateGroup(g)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// AccumulateGroup accumulates a single group.
func (p *Pipeline) AccumulateGroup(g gaze.Group) (GroupResult, error) {
	if _, err := p.Accumulator.GroupMask(g); err != nil {
		return GroupResult{}, err
	}
	points, err := p.Accumulator.GroupHeatSources(g)
	if err != nil {
		return GroupResult{}, err
	}
	log.Printf("Accumulated %s: %d episodes, %d heat sources", g.Name, len(g.Episodes), len(points))
	return GroupResult{
		Group:       g.Name,
		Episodes:    len(g.Episodes),
		HeatSources: points,
		Heatmap:     accumulate.HeatmapKey(g.Name, p.Accumulator.HeatWeight),
		Mask:        accumulate.GroupMaskKey(g.Name),
	}, nil
}

// Validate cross-validates every group.
func (p *Pipeline) Validate() error {
	if len(p.groups) == 0 {
		return ErrNotLoaded
	}
	for _, g := range p.groups {
		if _, err := p.ValidateGroup(g); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGroup cross-validates g and returns its ledger records.
func (p *Pipeline) ValidateGroup(g gaze.Group) ([]validation.Record, error) {
	log.Printf("Validating %s with %d episodes", g.Name, len(g.Episodes))
	records, err := p.Validator.Validate(g)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", g.Name, err)
	}
	return records, nil
}

// Report summarizes the ledger records of every group.
func (p *Pipeline) Report() ([]validation.GroupReport, error) {
	if len(p.groups) == 0 {
		return nil, ErrNotLoaded
	}
	reports := make([]validation.GroupReport, 0, len(p.groups))
	for _, g := range p.groups {
		records, err := p.Ledger.Records(g.Name)
		if err != nil {
			return nil, err
		}
		rep := validation.Report(g.Name, records)
		log.Printf("%s: directed mask mean %.3f (sd %.3f, cv %.1f%%), heatmap mean %.3f (sd %.3f, cv %.1f%%)",
			g.Name, rep.DirectedMask.Mean, rep.DirectedMask.StdDev, rep.DirectedMask.CV,
			rep.Heatmap.Mean, rep.Heatmap.StdDev, rep.Heatmap.CV)
		reports = append(reports, rep)
	}
	return reports, nil
}

// Run executes every stage in order over manifest.
func (p *Pipeline) Run(manifest string) ([]validation.GroupReport, error) {
	if _, err := p.Load(manifest, true); err != nil {
		return nil, err
	}
	if err := p.BuildMasks(); err != nil {
		return nil, err
	}
	if _, err := p.Accumulate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Report()
}
