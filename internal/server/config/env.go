package config

import (
	"os"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvDatabaseURL        = "DATABASE_URL"
	EnvDatabaseMigrations = "DATABASE_MIGRATIONS"
	EnvGRPCAddress        = "GRPC_ADDRESS"
	EnvMetricsAddress     = "METRICS_ADDRESS"
	EnvSecretKey          = "SECRET_KEY"
	EnvSessionValidity    = "SESSION_VALIDITY"
	EnvLogLevel           = "LOG_LEVEL"
)

// parseEnv overlays Config with non-empty environment variables.
// SESSION_VALIDITY uses time.ParseDuration syntax; an invalid value panics,
// like an invalid JSON file does.
func parseEnv(config *Config) {
	setFromEnv(EnvDatabaseURL, &config.DatabaseDSN)
	setFromEnv(EnvDatabaseMigrations, &config.MigrationsDir)
	setFromEnv(EnvGRPCAddress, &config.EndpointAddrGRPC)
	setFromEnv(EnvMetricsAddress, &config.MetricsAddr)
	setFromEnv(EnvSecretKey, &config.SecretKey)
	setFromEnv(EnvLogLevel, &config.LogLevel)

	if v, ok := os.LookupEnv(EnvSessionValidity); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidityDuration = d
	}
}

func setFromEnv(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
