// Package server implements the MCP (Model Context Protocol) server for gaze
// attention analysis.
//
// This package provides a JSON-RPC 2.0 server that exposes heat source
// extraction, directed mask accumulation and leave-one-out validation through
// the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Heat Fields:
//   - attention_load_heat_field: Load a heat raster and describe it
//   - attention_extract_heat_sources: Find heat sources with a chosen strategy
//   - attention_describe_partition: Axis and quadrant regions around a center
//   - attention_correlate_heat_fields: Pearson correlation of two rasters
//
// Analysis:
//   - attention_build_directed_masks: Load a manifest and build episode masks
//   - attention_accumulate: Group masks, heatmaps and heat sources
//   - attention_validate: Leave-one-out cross-validation
//   - attention_validation_report: Per-group correlation summary
//
// The analysis tools share one pipeline whose artifact store and validation
// ledger are opened on first use from the server's configuration. A manifest
// loaded by one call stays loaded for the following ones.
//
// # Field Caching
//
// Heat rasters are cached by path and reused across tool calls for the
// lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg)
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
