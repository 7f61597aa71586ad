// Package logger provides structured logging for varconv using zerolog.
//
// Logs go to stderr by default so that stdout stays free for converted
// output when the sink target is the standard output stream.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("pipeline")
//	log.Info("run finished", logger.Fields("batches", n))
package logger
