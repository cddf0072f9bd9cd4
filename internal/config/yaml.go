// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Sensor sources.
const (
	SourceSimulated = "simulated"
	SourceReplay    = "replay"
)

// Display modes.
const (
	DisplayTUI = "tui"
	DisplayLog = "log"
)

var (
	ErrUnknownSource  = errors.New("unknown sensor source")
	ErrMissingReplay  = errors.New("sensor.replay_file must be set for the replay source")
	ErrUnknownDisplay = errors.New("unknown display mode")
	ErrDisplaySize    = errors.New("display size out of range")
)

// Config represents the host runtime configuration, loaded from YAML. It only
// selects collaborators (which sensor, which display) and logging; the
// pipeline constants live in config.go.
type Config struct {
	Debug    bool          `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel string        `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Sensor   SensorConfig  `yaml:"sensor"`    // Sample source.
	Display  DisplayConfig `yaml:"display"`   // Render target.
}

// SensorConfig selects the sensor collaborator.
type SensorConfig struct {
	Source     string          `yaml:"source"`      // "simulated" or "replay".
	ReplayFile string          `yaml:"replay_file"` // Two-channel WAV of raw LED counts, for the replay source.
	Loop       bool            `yaml:"loop"`        // Rewind the replay file at EOF instead of running dry.
	Simulated  SimulatedConfig `yaml:"simulated"`
}

// SimulatedConfig shapes the synthetic PPG produced by the simulated sensor.
type SimulatedConfig struct {
	HeartRateBPM float64 `yaml:"heart_rate_bpm"`
	Noise        float64 `yaml:"noise"` // Gaussian noise standard deviation, in counts.
	Seed         uint64  `yaml:"seed"`
}

// DisplayConfig selects the display collaborator.
type DisplayConfig struct {
	Mode        string        `yaml:"mode"`   // "tui" or "log".
	Width       int           `yaml:"width"`  // Surface width in pixels.
	Height      int           `yaml:"height"` // Surface height in pixels.
	LogInterval time.Duration `yaml:"log_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debug:    false,
		LogLevel: "info",
		Sensor: SensorConfig{
			Source: SourceSimulated,
			Loop:   true,
			Simulated: SimulatedConfig{
				HeartRateBPM: 72,
				Noise:        40,
				Seed:         1,
			},
		},
		Display: DisplayConfig{
			Mode:        DisplayTUI,
			Width:       WindowSize * 2, // One trace point every second pixel.
			Height:      240,
			LogInterval: time.Second,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the collaborator selection. The surface must be large
// enough to hold the header row and at least a few graph rows.
func (c *Config) Validate() error {
	switch c.Sensor.Source {
	case SourceSimulated:
		if c.Sensor.Simulated.HeartRateBPM <= 0 {
			return fmt.Errorf("sensor.simulated.heart_rate_bpm must be positive, got %v", c.Sensor.Simulated.HeartRateBPM)
		}
		if c.Sensor.Simulated.Noise < 0 {
			return fmt.Errorf("sensor.simulated.noise must not be negative, got %v", c.Sensor.Simulated.Noise)
		}
	case SourceReplay:
		if c.Sensor.ReplayFile == "" {
			return ErrMissingReplay
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Sensor.Source)
	}

	switch c.Display.Mode {
	case DisplayTUI, DisplayLog:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDisplay, c.Display.Mode)
	}

	if c.Display.Width < 16 || c.Display.Width > 1024 || c.Display.Height < 32 || c.Display.Height > 1024 {
		return fmt.Errorf("%w: %dx%d", ErrDisplaySize, c.Display.Width, c.Display.Height)
	}
	if c.Display.LogInterval <= 0 {
		return fmt.Errorf("display.log_interval must be positive, got %s", c.Display.LogInterval)
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Malformed values are ignored and the file value is kept.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok && val != "" {
		cfg.LogLevel = val
	}

	// ENV_SENSOR_{...}
	// These are specific to the sample source.

	// ENV_SENSOR_SOURCE
	if val, ok := os.LookupEnv("ENV_SENSOR_SOURCE"); ok && val != "" {
		cfg.Sensor.Source = val
	}
	// ENV_SENSOR_REPLAY_FILE
	if val, ok := os.LookupEnv("ENV_SENSOR_REPLAY_FILE"); ok {
		cfg.Sensor.ReplayFile = val
	}
	// ENV_SENSOR_HEART_RATE
	if val, ok := os.LookupEnv("ENV_SENSOR_HEART_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Sensor.Simulated.HeartRateBPM = fVal
		}
	}

	// ENV_DISPLAY_MODE
	if val, ok := os.LookupEnv("ENV_DISPLAY_MODE"); ok && val != "" {
		cfg.Display.Mode = val
	}
	// ENV_DISPLAY_LOG_INTERVAL
	if val, ok := os.LookupEnv("ENV_DISPLAY_LOG_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Display.LogInterval = dur
		}
	}
}
