// Package logging provides structured logging for a Gray Logic Node.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the node.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, node, version) on all log entries
//   - Level-based filtering, adjustable at runtime through SetLevel
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, cfg.Node.Name, "1.0.0")
//	logger.Info("starting node", "interfaces", 1)
//	logger.With("component", "bridge").Warn("publish failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
