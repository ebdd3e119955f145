package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadConfig reads and validates the TOML configuration file at path,
// applying defaults the same way the original YAML-based loader did:
// parse, validate, then fill in anything left unset.
func LoadConfig(configPath string) (*Config, error) {
	// #nosec G304 -- reading configuration from a user-provided path is intended; path is controlled via env/defaults
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	for id, frame := range cfg.Frames {
		frame.ID = id
	}
	for id, source := range cfg.Sources {
		source.ID = id
	}

	if err := validateFrames(cfg.Frames); err != nil {
		return nil, fmt.Errorf("invalid frame configuration: %w", err)
	}
	if err := validateSources(cfg.Sources); err != nil {
		return nil, fmt.Errorf("invalid source configuration: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RotationTimezone == "" {
		cfg.RotationTimezone = "UTC"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.CursorDatabase == "" {
		cfg.CursorDatabase = "cursor.db"
	}
	for _, frame := range cfg.Frames {
		if frame.Dither == "" {
			frame.Dither = "floyd_steinberg"
		}
		if frame.FitMode == "" {
			frame.FitMode = "cover"
		}
		if frame.Orientation == "" {
			frame.Orientation = "landscape"
		}
		if frame.PushTimeoutMS <= 0 {
			frame.PushTimeoutMS = 30_000
		}
		if frame.Timestamp.Position == "" {
			frame.Timestamp.Position = "bottom-right"
		}
		if frame.Timestamp.ColorMode == "" {
			frame.Timestamp.ColorMode = "auto"
		}
		if frame.Timestamp.Format == "" {
			frame.Timestamp.Format = "%Y-%m-%d %H:%M"
		}
	}
	for _, source := range cfg.Sources {
		if source.Order == "" {
			source.Order = "sequential"
		}
	}
}

// validateFrames ensures every frame descriptor is internally consistent
// before the process starts serving requests.
func validateFrames(frames map[string]*FrameConfig) error {
	for id, frame := range frames {
		if id == "" {
			return fmt.Errorf("frame has empty id")
		}
		if frame.PanelWidth <= 0 || frame.PanelHeight <= 0 {
			return fmt.Errorf("frame %s: panel dimensions must be positive", id)
		}
		if frame.Orientation != "" && frame.Orientation != "landscape" && frame.Orientation != "portrait" {
			return fmt.Errorf("frame %s: invalid orientation %q", id, frame.Orientation)
		}
		if frame.FitMode != "" && frame.FitMode != "cover" && frame.FitMode != "contain" {
			return fmt.Errorf("frame %s: invalid fit mode %q", id, frame.FitMode)
		}
		if len(frame.Palette) == 0 {
			return fmt.Errorf("frame %s: palette must not be empty", id)
		}
		if frame.Cron == "" {
			return fmt.Errorf("frame %s: cron expression is required", id)
		}
	}
	return nil
}

func validateSources(sources map[string]*SourceConfig) error {
	for id, src := range sources {
		if id == "" {
			return fmt.Errorf("source has empty id")
		}
		if src.Kind != "filesystem" && src.Kind != "remote-photo-api" {
			return fmt.Errorf("source %s: unknown kind %q", id, src.Kind)
		}
		if src.Order != "" && src.Order != "random" && src.Order != "sequential" {
			return fmt.Errorf("source %s: invalid order %q", id, src.Order)
		}
	}
	return nil
}
