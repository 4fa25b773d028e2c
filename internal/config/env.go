package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config for environment parsing. Variables that are not
// set leave the field untouched.
type envConfig struct {
	DataDir         string        `env:"DATA_DIR"`
	StoreFile       string        `env:"STORE_FILE"`
	SettingsBackend string        `env:"SETTINGS_BACKEND"`
	SettingsFile    string        `env:"SETTINGS_FILE"`
	KDFIterations   int           `env:"KDF_ITERATIONS"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`
	LogLevel        string        `env:"LOG_LEVEL"`
}

const envPrefix = "TOTPKEEPER_"

// parseEnv overlays cfg with TOTPKEEPER_* variables. It panics when a
// variable cannot be parsed into its field type.
func parseEnv(cfg *Config) {
	ec := envConfig{
		DataDir:         cfg.DataDir,
		StoreFile:       cfg.StoreFile,
		SettingsBackend: cfg.SettingsBackend,
		SettingsFile:    cfg.SettingsFile,
		KDFIterations:   cfg.KDFIterations,
		RefreshInterval: cfg.RefreshInterval,
		LogLevel:        cfg.LogLevel,
	}

	if err := env.ParseWithOptions(&ec, env.Options{Prefix: envPrefix}); err != nil {
		panic(err)
	}

	cfg.DataDir = ec.DataDir
	cfg.StoreFile = ec.StoreFile
	cfg.SettingsBackend = ec.SettingsBackend
	cfg.SettingsFile = ec.SettingsFile
	cfg.KDFIterations = ec.KDFIterations
	cfg.RefreshInterval = ec.RefreshInterval
	cfg.LogLevel = ec.LogLevel
}
