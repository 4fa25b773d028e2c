package config

import (
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	DefaultStoreFileName   = "totp_data.json"
	DefaultSettingsJSON    = "config.json"
	DefaultSettingsSQLite  = "settings.db"
	DefaultRefreshInterval = time.Second
)

// Config holds runtime settings for the totpkeeper client.
type Config struct {
	DataDir         string
	StoreFile       string
	SettingsBackend string
	SettingsFile    string
	KDFIterations   int
	RefreshInterval time.Duration
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = common.DataDirName
	c.StoreFile = ""
	c.SettingsBackend = BackendJSON
	c.SettingsFile = ""
	c.KDFIterations = cryptox.DefaultIterations
	c.RefreshInterval = DefaultRefreshInterval
	c.LogLevel = "info"
}

// Resolve fills empty file paths with their defaults inside DataDir.
func (c *Config) Resolve() {
	if c.StoreFile == "" {
		c.StoreFile = filepath.Join(c.DataDir, DefaultStoreFileName)
	}
	if c.SettingsFile == "" {
		name := DefaultSettingsJSON
		if c.SettingsBackend == BackendSQLite {
			name = DefaultSettingsSQLite
		}
		c.SettingsFile = filepath.Join(c.DataDir, name)
	}
	if c.KDFIterations < 1 {
		c.KDFIterations = cryptox.DefaultIterations
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, environment and command-line flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.Resolve()
	return cfg
}
