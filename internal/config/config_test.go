package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Game.GridSide != 8 {
		t.Fatalf("GridSide: expected 8 got %d", cfg.Game.GridSide)
	}
	if cfg.Game.TotalCells() != 64 {
		t.Fatalf("TotalCells: expected 64 got %d", cfg.Game.TotalCells())
	}
	if cfg.Game.MaxLevel != 20 {
		t.Fatalf("MaxLevel: expected 20 got %d", cfg.Game.MaxLevel)
	}
	if cfg.Game.LevelScalingFactor != 500 {
		t.Fatalf("LevelScalingFactor: expected 500 got %v", cfg.Game.LevelScalingFactor)
	}
	if cfg.Game.TickInterval != time.Second {
		t.Fatalf("TickInterval: expected 1s got %v", cfg.Game.TickInterval)
	}
	if cfg.Game.CreditClaimCooldown != 7*24*time.Hour {
		t.Fatalf("CreditClaimCooldown: expected one week got %v", cfg.Game.CreditClaimCooldown)
	}
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"grid side":      func(c *Config) { c.Game.GridSide = 0 },
		"tick interval":  func(c *Config) { c.Game.TickInterval = 0 },
		"refund ratio":   func(c *Config) { c.Game.SellRefundRatio = 1.5 },
		"local driver":   func(c *Config) { c.Persistence.LocalDriver = "floppy" },
		"storage key":    func(c *Config) { c.Persistence.StorageKey = "" },
		"remote timeout": func(c *Config) { c.Persistence.RemoteTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Game, cfg.Game)
	assert.Equal(t, Default().Persistence.StorageKey, cfg.Persistence.StorageKey)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solar.yaml")
	body := []byte(`
game:
  grid_side: 4
  tick_interval: 250ms
  max_level: 25
persistence:
  local_driver: redis
  remote_interval: 15s
remote:
  base_url: http://saves.local
  user_id: u-1
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Game.GridSide)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, 25, cfg.Game.MaxLevel)
	assert.Equal(t, LocalDriverRedis, cfg.Persistence.LocalDriver)
	assert.Equal(t, 15*time.Second, cfg.Persistence.RemoteInterval)
	assert.Equal(t, "http://saves.local", cfg.Remote.BaseURL)
	// untouched keys keep defaults
	assert.Equal(t, 500.0, cfg.Game.LevelScalingFactor)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SOLAR_GAME_MAX_LEVEL", "30")
	t.Setenv("SOLAR_LOGGER_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Game.MaxLevel)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  grid_side: -1\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
