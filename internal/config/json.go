package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/totpkeeper/internal/flagx"
	"github.com/dmitrijs2005/totpkeeper/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// keep the values already in Config.
type JSONConfig struct {
	DataDir         *string         `json:"data_dir"`
	StoreFile       *string         `json:"store_file"`
	SettingsBackend *string         `json:"settings_backend"`
	SettingsFile    *string         `json:"settings_file"`
	KDFIterations   *int            `json:"kdf_iterations"`
	RefreshInterval *timex.Duration `json:"refresh_interval"`
	LogLevel        *string         `json:"log_level"`
}

// parseJSON overlays cfg with the JSON file named by -c or -config.
// It panics on read or unmarshal errors.
func parseJSON(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc JSONConfig) apply(cfg *Config) {
	setIf(&cfg.DataDir, jc.DataDir)
	setIf(&cfg.StoreFile, jc.StoreFile)
	setIf(&cfg.SettingsBackend, jc.SettingsBackend)
	setIf(&cfg.SettingsFile, jc.SettingsFile)
	setIf(&cfg.KDFIterations, jc.KDFIterations)
	setIf(&cfg.LogLevel, jc.LogLevel)
	if jc.RefreshInterval != nil {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
