// Package config loads lifescope host configuration.
//
// It uses Viper to read a YAML config file, an optional .env file loaded
// with godotenv, and environment variable overrides. Every key reachable
// through `mapstructure` tags can be overridden with the LIFESCOPE_ prefix
// and underscores for nesting (LIFESCOPE_CONTAINER_INJECT_PREFIX).
//
// # Usage
//
//	var cfg bootstrap.Config
//	err := config.LoadConfig("arena", &cfg, config.WithConfigFile("cmd/arena/config.yml"))
package config
