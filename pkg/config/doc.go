// Package config loads typed configuration from environment variables.
//
// Structs describe their variables with caarlos0/env tags:
//
//	type Config struct {
//		Timeout    time.Duration `env:"VALIDATION_TIMEOUT" envDefault:"10s"`
//		MaxRetries int           `env:"VALIDATION_MAX_RETRIES" envDefault:"3"`
//	}
//
// Load reads the default .env file once (if present), parses the environment
// into the struct and caches the result per type. LoadEnv reads additional
// .env files; Reset clears the cache, which tests use after changing variables.
package config
