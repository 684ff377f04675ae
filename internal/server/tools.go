package server

import (
	"github.com/ironsheep/gaze-attention-mcp/internal/extraction"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// analysisProperties are shared by the tools that work on a loaded manifest.
func analysisProperties() map[string]interface{} {
	return map[string]interface{}{
		"manifest": pathProperty("Absolute path to an episode manifest. Loads it before running; omit to reuse the last loaded manifest"),
		"group": map[string]interface{}{
			"type":        "string",
			"description": "Restrict the operation to one group (e.g. cohort-3). Default: every group",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Heat Fields
		{
			Name:        "attention_load_heat_field",
			Description: "Load a grayscale heat raster and return its size, hottest cell and energy. The field is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the heat raster (PNG, JPEG, GIF, BMP or TIFF)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "attention_extract_heat_sources",
			Description: "Extract heat sources (local intensity peaks) from a heat raster. Results are sorted ascending by intensity.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the heat raster"),
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        extraction.Strategies(),
						"description": "Extraction strategy. Default: concurrent-elimination",
						"default":     extraction.StrategyConcurrentElimination,
					},
					"validity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Share of nearby cells that must be hot for a peak to count. Default 0.6",
						"default":     extraction.DefaultValidityThreshold,
					},
					"validity_range": map[string]interface{}{
						"type":        "integer",
						"description": "Manhattan radius of the validity neighbourhood. Default 2",
						"default":     extraction.DefaultValidityRange,
					},
					"trend_window": map[string]interface{}{
						"type":        "integer",
						"description": "Samples a walk looks back to decide whether intensity still falls. Default 80",
						"default":     extraction.DefaultTrendWindow,
					},
					"use_cache": map[string]interface{}{
						"type":        "boolean",
						"description": "Reuse and store results in the artifact store, keyed by file name, content and extraction settings. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "attention_describe_partition",
			Description: "Describe how a raster is split into four axes and four quadrants around a center. With a path, also counts the cells one elimination step around the center would erase.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Raster width. Ignored when path is given",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Raster height. Ignored when path is given",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Center X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Center Y coordinate (0-based)",
					},
					"path": pathProperty("Optional heat raster to run one elimination step on"),
					"trend_window": map[string]interface{}{
						"type":        "integer",
						"description": "Trend window for the elimination step. Default 80",
						"default":     extraction.DefaultTrendWindow,
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "attention_correlate_heat_fields",
			Description: "Pearson correlation and p-value between two heat rasters of equal size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path_a": pathProperty("Absolute path to the first heat raster"),
					"path_b": pathProperty("Absolute path to the second heat raster"),
				},
				"required": []string{"path_a", "path_b"},
			},
		},

		// Analysis
		{
			Name:        "attention_build_directed_masks",
			Description: "Load an episode manifest and build the directed mask (saccade flow field) of every episode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"manifest": pathProperty("Absolute path to the episode manifest"),
					"filter": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply the fixation filter while loading. Default true",
						"default":     true,
					},
				},
				"required": []string{"manifest"},
			},
		},
		{
			Name:        "attention_accumulate",
			Description: "Accumulate directed masks and heatmaps per group and extract the group heat sources. Directed masks must be built first.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
			},
		},
		{
			Name:        "attention_validate",
			Description: "Leave-one-out cross-validation: correlate every episode with the rest of its group, for directed masks and heatmaps.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
			},
		},
		{
			Name:        "attention_validation_report",
			Description: "Summarize validation scores per group: per-episode correlations with their mean, standard deviation and coefficient of variation.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
