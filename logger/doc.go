// Package logger provides structured logging for pullstream using zerolog.
//
// Stages, the scheduler and the CLI all take a *Logger. The zero-cost default
// is Nop(), so library users only see output when they pass a real logger.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "pullstream").WithComponent("sink")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id, logger.FieldChunkLen, n))
package logger
