package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/stateforward/go-hybrid/analysis"
	"github.com/stateforward/go-hybrid/watertank"
)

const EnvPrefix = "HYBRIDC"

type LoggerConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	Format    string `mapstructure:"format" yaml:"format"`
	AddSource bool   `mapstructure:"add_source" yaml:"add_source"`
}

// BuildConfig selects how the case study is composed and printed.
type BuildConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	Format   string `mapstructure:"format" yaml:"format"`
}

type Config struct {
	Logger   LoggerConfig      `mapstructure:"logger"`
	Build    BuildConfig       `mapstructure:"build"`
	Plant    watertank.Config  `mapstructure:"plant"`
	Analysis analysis.Settings `mapstructure:"analysis"`
}

var formats = []string{"text", "easy", "plantuml", "yaml", "msgpack"}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.add_source", false)

	// -- Build --
	v.SetDefault("build.strategy", watertank.Together.String())
	v.SetDefault("build.format", "easy")

	// -- Plant --
	plant := watertank.DefaultConfig()
	v.SetDefault("plant.inflows", plant.Inflows)
	v.SetDefault("plant.outflows", plant.Outflows)
	v.SetDefault("plant.opening_time", plant.OpeningTime)
	v.SetDefault("plant.hmin", plant.HMin)
	v.SetDefault("plant.hmax", plant.HMax)
	v.SetDefault("plant.delta", plant.Delta)
	v.SetDefault("plant.urgent", plant.Urgent)
	v.SetDefault("plant.initial_valve_level", plant.InitialValveLevel)
	v.SetDefault("plant.initial_water_level", plant.InitialWaterLevel)

	// -- Analysis --
	settings := analysis.DefaultSettings()
	v.SetDefault("analysis.maximum_step_size", settings.MaximumStepSize)
	v.SetDefault("analysis.evolution_time", settings.EvolutionTime)
	v.SetDefault("analysis.maximum_events", settings.MaximumEvents)
	v.SetDefault("analysis.accuracy", settings.Accuracy)
	v.SetDefault("analysis.maximum_parameter_depth", settings.MaximumParameterDepth)
	v.SetDefault("analysis.ttl", settings.TTL.String())
}

// Environment binds HYBRIDC_* variables, so HYBRIDC_PLANT_HMAX overrides
// plant.hmax.
func Environment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if _, err := c.Logger.SlogLevel(); err != nil {
		return err
	}
	if c.Logger.Format != "text" && c.Logger.Format != "json" {
		return fmt.Errorf("logger.format must be text or json, got %q", c.Logger.Format)
	}
	if _, err := watertank.ParseStrategy(c.Build.Strategy); err != nil {
		return fmt.Errorf("build.strategy: %w", err)
	}
	if !slices.Contains(formats, c.Build.Format) {
		return fmt.Errorf("build.format must be one of %s, got %q", strings.Join(formats, ", "), c.Build.Format)
	}
	return errors.Join(
		wrap("plant", c.Plant.Validate()),
		wrap("analysis", c.Analysis.Validate()),
	)
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s configuration invalid: %w", section, err)
}

func (l LoggerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logger.level: %w", err)
	}
	return level, nil
}

// Formats lists the output formats accepted by build.format.
func Formats() []string {
	return slices.Clone(formats)
}
