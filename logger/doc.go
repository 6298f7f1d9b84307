// Package logger provides structured logging for vbdiar components
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// Resegmentation runs tag their log lines with run, recording, and
// iteration fields so that per-recording output can be filtered out
// of a batch run.
//
// # Configuration
//
//	logger:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("engine")
//	log.Info("iteration finished", logger.Fields(
//		logger.FieldIteration, 3,
//		logger.FieldElbo, -152.4,
//	))
package logger
