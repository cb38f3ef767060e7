// Package logging provides structured logging for ledd.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same fields and format.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "device", "my_gpio_device")
//	logger.Error("line claim failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
