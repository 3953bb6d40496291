// Package logger provides structured logging for readflow using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Every pipeline node logs through a logger
// tagged with its node name.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("encoder")
//	log.Info("node terminated", logger.Fields("processed", 120))
package logger
