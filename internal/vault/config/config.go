package config

import "time"

// Config holds runtime settings for the vault CLI.
//
// Fields:
//   - DatabasePath: path to the SQLite database file holding the vault.
//   - AuthorName: display name stamped into exported bundles.
//   - FriendCode: shareable identity code stamped into exported bundles.
//   - LinkSweepInterval: how often expired share links are swept out.
//
// Units: LinkSweepInterval is a time.Duration (e.g., 15*time.Minute).
type Config struct {
	DatabasePath      string
	AuthorName        string
	FriendCode        string
	LinkSweepInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "vault.db"
	c.AuthorName = "anonymous"
	c.FriendCode = ""
	c.LinkSweepInterval = 15 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
