// Package config loads runtime configuration from an optional YAML file
// and ORRERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
)

// EnvPrefix is prepended to every environment override, with dots in
// keys replaced by underscores: ORRERY_SIM_TIME_SCALE.
const EnvPrefix = "ORRERY"

type Config struct {
	Log     logging.Config              `mapstructure:"log"`
	Tracing observability.TracingConfig `mapstructure:"tracing"`
	Sim     SimConfig                   `mapstructure:"sim"`
	// Scenario is a YAML scenario file; empty loads the built-in solar
	// system.
	Scenario    string  `mapstructure:"scenario"`
	MetricsAddr string  `mapstructure:"metrics_addr"`
	StreamAddr  string  `mapstructure:"stream_addr"`
	StreamRate  float64 `mapstructure:"stream_rate"` // snapshots per second per client
}

type SimConfig struct {
	// Start is a UTC date accepted by astro.ParseDate, or "now".
	Start     string        `mapstructure:"start"`
	TimeScale float64       `mapstructure:"time_scale"`
	Tick      time.Duration `mapstructure:"tick"`
	// Duration bounds the run; zero runs until interrupted.
	Duration    time.Duration `mapstructure:"duration"`
	Accelerated bool          `mapstructure:"accelerated"`
	Select      string        `mapstructure:"select"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: logging.Config{Level: "info", Format: "text"},
		Tracing: observability.TracingConfig{
			ServiceName: "orrery",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		Sim: SimConfig{
			Start:     "now",
			TimeScale: 1,
			Tick:      100 * time.Millisecond,
		},
		MetricsAddr: ":9090",
		StreamAddr:  ":8080",
		StreamRate:  10,
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.add_source", d.Log.AddSource)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
	v.SetDefault("sim.start", d.Sim.Start)
	v.SetDefault("sim.time_scale", d.Sim.TimeScale)
	v.SetDefault("sim.tick", d.Sim.Tick)
	v.SetDefault("sim.duration", d.Sim.Duration)
	v.SetDefault("sim.accelerated", d.Sim.Accelerated)
	v.SetDefault("sim.select", d.Sim.Select)
	v.SetDefault("scenario", d.Scenario)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("stream_addr", d.StreamAddr)
	v.SetDefault("stream_rate", d.StreamRate)
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Sim.Tick <= 0 {
		errs = append(errs, fmt.Errorf("sim.tick must be positive, got %s", c.Sim.Tick))
	}
	if c.Sim.Duration < 0 {
		errs = append(errs, fmt.Errorf("sim.duration must not be negative, got %s", c.Sim.Duration))
	}
	if c.StreamRate <= 0 {
		errs = append(errs, fmt.Errorf("stream_rate must be positive, got %v", c.StreamRate))
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}
