// Package config loads application configuration from YAML with environment
// overrides. Every knob has a default, so an empty config is valid.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TRAILMAP_"

// Config represents the complete application configuration
type Config struct {
	Editor    EditorConfig    `koanf:"editor"`
	Routes    RoutesConfig    `koanf:"routes"`
	Routing   RoutingConfig   `koanf:"routing"`
	Elevation ElevationConfig `koanf:"elevation"`
	Overlays  OverlaysConfig  `koanf:"overlays"`
	Location  LocationConfig  `koanf:"location"`
}

// EditorConfig holds route editing settings
type EditorConfig struct {
	SensitivityPx        int     `koanf:"sensitivity_px"`
	UndoDepth            int     `koanf:"undo_depth"`
	RecordingNoiseMeters float64 `koanf:"recording_noise_meters"`
}

// RoutesConfig holds defaults for new routes and collection behavior
type RoutesConfig struct {
	Palette              []string `koanf:"palette"`
	Opacity              float64  `koanf:"opacity"`
	Weight               int      `koanf:"weight"`
	MergeThresholdMeters float64  `koanf:"merge_threshold_meters"`
}

// RoutingConfig holds routing engine settings
type RoutingConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	OfflineZoom int           `koanf:"offline_zoom"`
}

// ElevationConfig holds elevation service settings
type ElevationConfig struct {
	BaseURL string `koanf:"base_url"`
}

// OverlaysConfig holds overlay feed settings
type OverlaysConfig struct {
	Feeds []string      `koanf:"feeds"`
	TTL   time.Duration `koanf:"ttl"`
}

// LocationConfig holds location gateway settings
type LocationConfig struct {
	GatewayURL          string  `koanf:"gateway_url"`
	AccuracyLimitMeters float64 `koanf:"accuracy_limit_meters"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Editor: EditorConfig{
			SensitivityPx:        10,
			UndoDepth:            20,
			RecordingNoiseMeters: 5,
		},
		Routes: RoutesConfig{
			Palette: []string{
				"#0000FF", "#FF0000", "#FF6600", "#FF00DD",
				"#008000", "#B700FF", "#00B0A4", "#FFFF00",
				"#9C3E00", "#00FFFF", "#7F8282", "#101010",
			},
			Opacity:              0.7,
			Weight:               7,
			MergeThresholdMeters: 50,
		},
		Routing: RoutingConfig{
			BaseURL:     "https://routing.openhiking.org",
			Timeout:     4500 * time.Millisecond,
			OfflineZoom: 14,
		},
		Elevation: ElevationConfig{
			BaseURL: "https://elevation.openhiking.org",
		},
		Overlays: OverlaysConfig{
			TTL: 10 * time.Minute,
		},
		Location: LocationConfig{
			AccuracyLimitMeters: 50,
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// TRAILMAP_* environment overrides. Nested keys use a double underscore,
// e.g. TRAILMAP_EDITOR__UNDO_DEPTH=50.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Editor.SensitivityPx <= 0 {
		return fmt.Errorf("editor.sensitivity_px must be positive, got %d", c.Editor.SensitivityPx)
	}
	if c.Editor.UndoDepth < 1 {
		return fmt.Errorf("editor.undo_depth must be at least 1, got %d", c.Editor.UndoDepth)
	}
	if len(c.Routes.Palette) == 0 {
		return fmt.Errorf("routes.palette must not be empty")
	}
	if c.Routes.Opacity <= 0 || c.Routes.Opacity > 1 {
		return fmt.Errorf("routes.opacity must be in (0, 1], got %v", c.Routes.Opacity)
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("routing.timeout must be positive, got %v", c.Routing.Timeout)
	}
	return nil
}
