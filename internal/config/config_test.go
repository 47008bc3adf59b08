package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-hybrid/analysis"
	"github.com/stateforward/go-hybrid/watertank"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "together", cfg.Build.Strategy)
	assert.Equal(t, watertank.DefaultConfig(), cfg.Plant)
	assert.Equal(t, analysis.DefaultSettings(), cfg.Analysis)
	assert.Equal(t, 140*time.Second, cfg.Analysis.TTL)
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
logger:
  level: debug
  format: json
build:
  strategy: subsystems
plant:
  hmax: 8.0
  urgent: false
analysis:
  ttl: 2m
`)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	level, err := cfg.Logger.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "subsystems", cfg.Build.Strategy)
	assert.Equal(t, 8.0, cfg.Plant.HMax)
	assert.Equal(t, 5.75, cfg.Plant.HMin)
	assert.False(t, cfg.Plant.Urgent)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.TTL)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("HYBRIDC_PLANT_HMIN", "6.5")
	v := viper.New()
	SetDefaults(v)
	Environment(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 6.5, cfg.Plant.HMin)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"level":    func(c *Config) { c.Logger.Level = "loud" },
		"format":   func(c *Config) { c.Logger.Format = "xml" },
		"strategy": func(c *Config) { c.Build.Strategy = "sideways" },
		"output":   func(c *Config) { c.Build.Format = "svg" },
		"plant":    func(c *Config) { c.Plant.HMax = c.Plant.HMin },
		"analysis": func(c *Config) { c.Analysis.MaximumEvents = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	assert.Contains(t, Formats(), "plantuml")
}
