// Package logging provides structured logging for the device catalogue.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same format, level filtering and default fields
// (service, version).
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
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("catalogue loaded", "valid", 42)
//	logger.Error("source unreadable", "error", err)
//
// Never log secrets such as the MQTT password or the InfluxDB token.
package logging
