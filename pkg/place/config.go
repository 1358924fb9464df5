package place

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/gplace-dev/gplace/pkg/initial"
	"github.com/gplace-dev/gplace/pkg/nesterov"
	"github.com/gplace-dev/gplace/pkg/route"
	"github.com/gplace-dev/gplace/pkg/timing"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultTargetDensity is the per-bin target density used when none is
	// configured.
	DefaultTargetDensity = 0.7

	// MaxAutoBins caps each axis of the auto-sized bin grid.
	MaxAutoBins = 1024
)

// =============================================================================
// Config - Session Configuration
// =============================================================================

// Config contains all configuration for a placement session. This struct
// supports TOML serialization for config files.
type Config struct {
	// Bin grid options. Zero bin counts auto-size from the movable object
	// count.
	BinsX         int     `toml:"bins_x,omitempty"`
	BinsY         int     `toml:"bins_y,omitempty"`
	TargetDensity float64 `toml:"target_density,omitempty"`
	PadLeft       float64 `toml:"pad_left,omitempty"`
	PadRight      float64 `toml:"pad_right,omitempty"`

	// Phase options.
	Initial     initial.Config  `toml:"initial,omitempty"`
	Nesterov    nesterov.Config `toml:"nesterov,omitempty"`
	Routability route.Config    `toml:"routability,omitempty"`
	Timing      timing.Config   `toml:"timing,omitempty"`

	// ForceSerial disables the parallel gradient kernel.
	ForceSerial bool `toml:"force_serial,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `toml:"-"`
}

// ValidateAndSetDefaults checks ranges and applies defaults. This method is
// idempotent - calling it multiple times has the same effect as calling it
// once. Configuration errors are the only hard failures in the session
// lifecycle; everything downstream is best-effort.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}

	if c.BinsX < 0 || c.BinsY < 0 {
		return fmt.Errorf("bin counts must be non-negative, got %dx%d", c.BinsX, c.BinsY)
	}
	if c.TargetDensity == 0 {
		c.TargetDensity = DefaultTargetDensity
	}
	if c.TargetDensity < 0 || c.TargetDensity > 1 {
		return fmt.Errorf("target density must be in (0, 1], got %v", c.TargetDensity)
	}
	if c.PadLeft < 0 || c.PadRight < 0 {
		return fmt.Errorf("padding must be non-negative, got left %v right %v", c.PadLeft, c.PadRight)
	}
	if c.Routability.MaxInflationRatio < 1 && c.Routability.MaxInflationRatio != 0 {
		return fmt.Errorf("max inflation ratio must be >= 1, got %v", c.Routability.MaxInflationRatio)
	}
	for _, th := range c.Timing.OverflowThresholds {
		if th <= 0 {
			return fmt.Errorf("timing overflow thresholds must be positive, got %v", th)
		}
	}

	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	c.validated = true
	return nil
}

// autoBinCount picks a power-of-two bin count per axis so the grid has
// roughly one bin per movable object, within [2, MaxAutoBins].
func autoBinCount(numMovable int) int {
	c := 2
	for c < MaxAutoBins && c*c < numMovable {
		c *= 2
	}
	return c
}
