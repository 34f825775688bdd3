// Package config provides configuration management for the arcview CLI.
//
// Values are layered with koanf: built-in defaults, then arcview.yaml, then
// ARCVIEW_ environment variables, then flags set on the command line.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/internal/viewstate"
)

// Default configuration values.
const (
	DefaultPort           = 8765
	DefaultHost           = "localhost"
	DefaultOutput         = "auto" // TTY=text, non-TTY=markdown
	DefaultLogLevel       = "info"
	DefaultInitialMode    = "single"
	DefaultOutputCellSize = 20
	DefaultTimeout        = transform.DefaultTimeout
	DefaultMaxSteps       = transform.DefaultMaxSteps
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool            `koanf:"verbose"`
	OutputFormat string          `koanf:"output"`
	LogLevel     string          `koanf:"log_level"`
	UI           UIConfig        `koanf:"ui"`
	Viewer       ViewerConfig    `koanf:"viewer"`
	Render       RenderConfig    `koanf:"render"`
	Transform    TransformConfig `koanf:"transform"`
}

// UIConfig holds configuration for the web viewer.
type UIConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
}

// ViewerConfig holds the initial view state.
type ViewerConfig struct {
	InitialMode   string `koanf:"initial_mode"`
	LockTestToAll bool   `koanf:"lock_test_to_all"`
}

// RenderConfig holds grid sizing.
type RenderConfig struct {
	OutputCellSize int  `koanf:"output_cell_size"`
	Adaptive       bool `koanf:"adaptive"`
}

// TransformConfig bounds user transform code.
type TransformConfig struct {
	MaxSteps uint64        `koanf:"max_steps"`
	Timeout  time.Duration `koanf:"timeout"`
}

// defaults is the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"verbose":                 false,
		"output":                  DefaultOutput,
		"log_level":               DefaultLogLevel,
		"ui.host":                 DefaultHost,
		"ui.port":                 DefaultPort,
		"ui.auto_open":            true,
		"ui.watch":                true,
		"ui.session_secret":       "",
		"viewer.initial_mode":     DefaultInitialMode,
		"viewer.lock_test_to_all": true,
		"render.output_cell_size": DefaultOutputCellSize,
		"render.adaptive":         true,
		"transform.max_steps":     DefaultMaxSteps,
		"transform.timeout":       DefaultTimeout.String(),
	}
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		UI: UIConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			AutoOpen: true,
			Watch:    true,
		},
		Viewer: ViewerConfig{
			InitialMode:   DefaultInitialMode,
			LockTestToAll: true,
		},
		Render: RenderConfig{
			OutputCellSize: DefaultOutputCellSize,
			Adaptive:       true,
		},
		Transform: TransformConfig{
			MaxSteps: DefaultMaxSteps,
			Timeout:  DefaultTimeout,
		},
	}
}

// SlogLevel returns the log level; verbose forces debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ViewerOptions converts the viewer section for the view-state controller.
func (c *Config) ViewerOptions() (viewstate.Options, error) {
	mode, err := viewstate.ParseDisplayMode(c.Viewer.InitialMode)
	if err != nil {
		return viewstate.Options{}, err
	}
	return viewstate.Options{
		InitialMode:   mode,
		LockTestToAll: c.Viewer.LockTestToAll,
	}, nil
}

// NewRenderer builds the grid renderer from the render section.
func (c *Config) NewRenderer() *render.Renderer {
	return render.New(c.Render.OutputCellSize, c.Render.Adaptive)
}

// NewEngine builds the transform engine from the transform section.
func (c *Config) NewEngine(logger *slog.Logger) *transform.Engine {
	return transform.NewEngine(transform.Config{
		MaxSteps: c.Transform.MaxSteps,
		Timeout:  c.Transform.Timeout,
		Logger:   logger,
	})
}
