// Package logger provides structured logging on top of zerolog.
//
// Loggers are component-scoped and take field maps:
//
//	log := logger.Get("audio.sink")
//	log.Info("playback finished", logger.Fields("reason", "stopped"))
//
// Configuration:
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
