// Package logger provides structured logging for lifescope using zerolog.
//
// The container emits its diagnostic events (registrations, resolutions,
// duplicate-dependency and missing-scope warnings) through a *Logger, which
// is itself registered in and resolved from the container during
// initialization.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("arena").WithComponent("di")
//	log.Info("Service registered", logger.Fields("service_type", "*game.Sword"))
package logger
