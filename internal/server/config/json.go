package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cdn/internal/flagx"
)

// JsonConfig is the on-disk shape of the optional JSON configuration file.
// Durations are strings in time.ParseDuration syntax ("24h", "90m").
type JsonConfig struct {
	EndpointAddrGRPC        string `json:"endpoint_addr_grpc"`
	MetricsAddr             string `json:"metrics_addr"`
	DatabaseDSN             string `json:"database_dsn"`
	MigrationsDir           string `json:"migrations_dir"`
	SecretKey               string `json:"secret_key"`
	SessionValidityDuration string `json:"session_validity_duration"`
	LogLevel                string `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded. Only fields present
// in the file override the current values. An unreadable file or invalid
// JSON panics: the process must not start on a half-read configuration.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.MetricsAddr, c.MetricsAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.MigrationsDir, c.MigrationsDir)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.LogLevel, c.LogLevel)

	if c.SessionValidityDuration != "" {
		d, err := time.ParseDuration(c.SessionValidityDuration)
		if err != nil {
			panic(err)
		}
		config.SessionValidityDuration = d
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
