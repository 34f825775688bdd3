package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/arcview/internal/cli/output"
	"github.com/leapstack-labs/arcview/internal/viewstate"
)

// maxCellSize bounds render.output_cell_size in pixels.
const maxCellSize = 200

// Validate checks that every value is usable. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port must be between 0 and 65535, got %d", c.UI.Port))
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if _, err := viewstate.ParseDisplayMode(c.Viewer.InitialMode); err != nil {
		errs = append(errs, fmt.Errorf("viewer.initial_mode: %w", err))
	}
	if c.Render.OutputCellSize <= 0 || c.Render.OutputCellSize > maxCellSize {
		errs = append(errs, fmt.Errorf("render.output_cell_size must be between 1 and %d, got %d", maxCellSize, c.Render.OutputCellSize))
	}
	if c.Transform.MaxSteps == 0 {
		errs = append(errs, errors.New("transform.max_steps must be positive"))
	}
	if c.Transform.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("transform.timeout must be positive, got %s", c.Transform.Timeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
