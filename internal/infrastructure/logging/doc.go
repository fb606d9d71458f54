// Package logging provides structured logging using uber/zap.
//
// Two presets:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Components receive a plain *zap.Logger, usually a child created with
// Component so every line carries a "component" field.
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	bootLog := logger.Component("boot")
//	bootLog.Info("Boot started", zap.Int("total", 3))
package logging
