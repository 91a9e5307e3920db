// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production).
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (colored, human readable) or json
//   - File: optional path receiving a JSON copy of every entry, rotated by
//     lumberjack once it reaches MaxSizeMB
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Sync started", zap.String("query", job.Query))
package logger
