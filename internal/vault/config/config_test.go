package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "vault.db", c.DatabasePath)
	assert.Equal(t, "anonymous", c.AuthorName)
	assert.Equal(t, "", c.FriendCode)
	assert.Equal(t, 15*time.Minute, c.LinkSweepInterval)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "vault.db", cfg.DatabasePath)
	assert.Equal(t, 15*time.Minute, cfg.LinkSweepInterval)
}
