// Package log provides structured event capture for the clock service.
//
// This package defines the Logger interface and Event types for capturing
// events at three layers: the transport (raw frames), the wire (decoded
// clock-protocol messages) and the clock tree itself (enable, disable, rate
// and parent changes). It is separate from operational logging (slog): event
// capture provides a complete machine-readable trace for debugging and
// post-mortem analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	tree.SetEventLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/clkd/clkd.clog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Log files are a stream of CBOR encoded events (.clog). The clk-log tool
// provides viewing, filtering and statistics.
package log
