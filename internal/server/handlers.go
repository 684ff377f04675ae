package server

import (
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
	"github.com/ironsheep/gaze-attention-mcp/internal/gaze"
	"github.com/ironsheep/gaze-attention-mcp/internal/heat"
	"github.com/ironsheep/gaze-attention-mcp/internal/pipeline"
	"github.com/ironsheep/gaze-attention-mcp/internal/validation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "attention_extract_heat_sources").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Heat Fields
	case "attention_load_heat_field":
		return s.handleLoadHeatField(args)
	case "attention_extract_heat_sources":
		return s.handleExtractHeatSources(args)
	case "attention_describe_partition":
		return s.handleDescribePartition(args)
	case "attention_correlate_heat_fields":
		return s.handleCorrelateHeatFields(args)

	// Analysis
	case "attention_build_directed_masks":
		return s.handleBuildDirectedMasks(args)
	case "attention_accumulate":
		return s.handleAccumulate(args)
	case "attention_validate":
		return s.handleValidate(args)
	case "attention_validation_report":
		return s.handleValidationReport(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Heat Field Handlers ===

type loadHeatFieldArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoadHeatField(args json.RawMessage) (interface{}, error) {
	var a loadHeatFieldArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return heat.LoadInfo(s.cache, a.Path)
}

type extractHeatSourcesArgs struct {
	Path              string  `json:"path"`
	Strategy          string  `json:"strategy"`
	ValidityThreshold float64 `json:"validity_threshold"`
	ValidityRange     int     `json:"validity_range"`
	TrendWindow       int     `json:"trend_window"`
	UseCache          bool    `json:"use_cache"`
}

type extractHeatSourcesResult struct {
	Path        string       `json:"path"`
	Strategy    string       `json:"strategy"`
	Count       int          `json:"count"`
	HeatSources []heat.Point `json:"heat_sources"`
}

func (s *Server) handleExtractHeatSources(args json.RawMessage) (interface{}, error) {
	var a extractHeatSourcesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	opts := s.cfg.Extraction
	if a.ValidityThreshold != 0 {
		opts.ValidityThreshold = a.ValidityThreshold
	}
	if a.ValidityRange != 0 {
		opts.ValidityRange = a.ValidityRange
	}
	if a.TrendWindow != 0 {
		opts.TrendWindow = a.TrendWindow
	}
	if a.Strategy == "" {
		a.Strategy = s.cfg.Extractor
	}

	ex, err := extraction.New(a.Strategy, opts)
	if err != nil {
		return nil, err
	}
	field, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var points []heat.Point
	if a.UseCache {
		st, err := s.artifacts()
		if err != nil {
			return nil, err
		}
		cached := &extraction.Cached{Strategy: ex, Store: st, Force: s.cfg.Overwrite.Accumulation}
		points, err = cached.Extract(artifactName(a.Path, field, a.Strategy, opts), field)
		if err != nil {
			return nil, err
		}
	} else {
		if points, err = ex.Extract(field); err != nil {
			return nil, err
		}
	}

	return &extractHeatSourcesResult{
		Path:        a.Path,
		Strategy:    a.Strategy,
		Count:       len(points),
		HeatSources: points,
	}, nil
}

// artifactName derives the heat source artifact key of a raster file from
// its name, its content and the extraction settings.
func artifactName(path string, field *heat.Field, strategy string, opts extraction.Options) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return base + "-" + extraction.Identity(field) + "-" + extraction.Signature(strategy, opts)
}

type describePartitionArgs struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Path        string `json:"path"`
	TrendWindow int    `json:"trend_window"`
}

type describePartitionResult struct {
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Center     heat.Point          `json:"center"`
	Regions    []extraction.Region `json:"regions"`
	Eliminated *int                `json:"eliminated,omitempty"`
}

func (s *Server) handleDescribePartition(args json.RawMessage) (interface{}, error) {
	var a describePartitionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var field *heat.Field
	if a.Path != "" {
		f, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		field = f
		a.Width, a.Height = f.Width, f.Height
	}

	center := image.Point{X: a.X, Y: a.Y}
	m, err := extraction.NewMarkerMask(a.Width, a.Height, center)
	if err != nil {
		return nil, err
	}
	result := &describePartitionResult{
		Width:   a.Width,
		Height:  a.Height,
		Center:  heat.Point{X: a.X, Y: a.Y},
		Regions: m.Regions(),
	}

	if field != nil {
		result.Center.Intensity = int(field.At(a.X, a.Y))
		opts := s.cfg.Extraction
		if a.TrendWindow != 0 {
			opts.TrendWindow = a.TrendWindow
		}
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		ce := &extraction.ConcurrentElimination{Options: opts}
		mask, err := ce.EliminationMask(field, center)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, eliminated := range mask {
			if eliminated {
				n++
			}
		}
		result.Eliminated = &n
	}
	return result, nil
}

type correlateHeatFieldsArgs struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

func (s *Server) handleCorrelateHeatFields(args json.RawMessage) (interface{}, error) {
	var a correlateHeatFieldsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	fa, err := s.cache.Load(a.PathA)
	if err != nil {
		return nil, err
	}
	fb, err := s.cache.Load(a.PathB)
	if err != nil {
		return nil, err
	}
	return validation.CorrelateFields(fa, fb)
}

// === Analysis Handlers ===

type buildDirectedMasksArgs struct {
	Manifest string `json:"manifest"`
	Filter   *bool  `json:"filter"`
}

type buildDirectedMasksResult struct {
	Episodes int            `json:"episodes"`
	Groups   map[string]int `json:"groups"`
}

func (s *Server) handleBuildDirectedMasks(args json.RawMessage) (interface{}, error) {
	var a buildDirectedMasksArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Manifest == "" {
		return nil, fmt.Errorf("manifest is required")
	}
	filter := true
	if a.Filter != nil {
		filter = *a.Filter
	}

	p, err := s.analysis()
	if err != nil {
		return nil, err
	}
	groups, err := p.Load(a.Manifest, filter)
	if err != nil {
		return nil, err
	}
	if err := p.BuildMasks(); err != nil {
		return nil, err
	}

	result := &buildDirectedMasksResult{Groups: make(map[string]int, len(groups))}
	for _, g := range groups {
		result.Groups[g.Name] = len(g.Episodes)
		result.Episodes += len(g.Episodes)
	}
	return result, nil
}

type analysisArgs struct {
	Manifest string `json:"manifest"`
	Group    string `json:"group"`
}

// selectGroups loads the requested manifest, if any, and resolves the groups
// an analysis tool should work on.
func (s *Server) selectGroups(args json.RawMessage) (*pipeline.Pipeline, []gaze.Group, error) {
	var a analysisArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, nil, err
	}
	p, err := s.analysis()
	if err != nil {
		return nil, nil, err
	}
	if a.Manifest != "" {
		if _, err := p.Load(a.Manifest, true); err != nil {
			return nil, nil, err
		}
	}
	if a.Group != "" {
		g, err := p.Group(a.Group)
		if err != nil {
			return nil, nil, err
		}
		return p, []gaze.Group{g}, nil
	}
	groups := p.Groups()
	if len(groups) == 0 {
		return nil, nil, pipeline.ErrNotLoaded
	}
	return p, groups, nil
}

func (s *Server) handleAccumulate(args json.RawMessage) (interface{}, error) {
	p, groups, err := s.selectGroups(args)
	if err != nil {
		return nil, err
	}
	results := make([]pipeline.GroupResult, 0, len(groups))
	for _, g := range groups {
		r, err := p.AccumulateGroup(g)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Server) handleValidate(args json.RawMessage) (interface{}, error) {
	p, groups, err := s.selectGroups(args)
	if err != nil {
		return nil, err
	}
	results := make(map[string][]validation.Record, len(groups))
	for _, g := range groups {
		records, err := p.ValidateGroup(g)
		if err != nil {
			return nil, err
		}
		results[g.Name] = records
	}
	return results, nil
}

func (s *Server) handleValidationReport(args json.RawMessage) (interface{}, error) {
	p, groups, err := s.selectGroups(args)
	if err != nil {
		return nil, err
	}
	reports := make([]validation.GroupReport, 0, len(groups))
	for _, g := range groups {
		records, err := p.Ledger.Records(g.Name)
		if err != nil {
			return nil, err
		}
		reports = append(reports, validation.Report(g.Name, records))
	}
	return reports, nil
}
