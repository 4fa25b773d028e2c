// Package config loads runtime configuration for the totpkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (see parseJSON).
//  3. Environment variables prefixed with TOTPKEEPER_ (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory
//	-s string   entry store file
//	-b string   settings backend: json or sqlite
//	-k int      PBKDF2 iteration count for new keys
//	-r int      code refresh interval (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "data_dir": "data",
//	  "store_file": "data/totp_data.json",
//	  "settings_backend": "json",
//	  "settings_file": "data/config.json",
//	  "kdf_iterations": 100000,
//	  "refresh_interval": "1s",
//	  "log_level": "info"
//	}
//
// Empty StoreFile and SettingsFile are resolved inside DataDir by
// (*Config).Resolve.
package config
