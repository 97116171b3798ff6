// Package config loads service configuration with Viper.
//
// Values come from, in increasing priority: the YAML config file, a .env
// file, and process environment variables. Environment keys are the
// upper-cased config path joined by underscores and prefixed with the
// service's env prefix, e.g. SSECAST_SERVER_PORT for server.port.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("ssecast", &cfg, config.WithEnvPrefix("SSECAST"))
package config
