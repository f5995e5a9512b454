// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path to the vault database file
//	-n string   author display name for exported bundles
//	-f string   friend code for exported bundles
//	-i int      expired link sweep interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "15m" or integer nanoseconds:
//
//	{
//	  "database_path": "vault.db",
//	  "author_name": "Grayson Carlyle",
//	  "friend_code": "GDL-3025",
//	  "link_sweep_interval": "15m"
//	}
//
// Primary API
//
//   - type Config                     — holds database path, author identity and sweep interval
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
