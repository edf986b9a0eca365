package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DefaultMessage is shown when no message is configured
	DefaultMessage = "confirm?"

	// Hint is always shown below the message
	Hint = "press enter to confirm"
)

// Backend names accepted by DisplayConfig.Backend
const (
	BackendAuto       = "auto"
	BackendLayerShell = "layershell"
	BackendX11        = "x11"
)

// Layer names accepted by DisplayConfig.Layer
const (
	LayerTop     = "top"
	LayerOverlay = "overlay"
)

// Config holds all application configuration. It is built once at startup
// and not modified afterwards.
type Config struct {
	// Overlay configuration
	Overlay OverlayConfig

	// Display configuration
	Display DisplayConfig

	// Logging configuration
	Log LogConfig
}

// OverlayConfig holds what the overlay shows and runs
type OverlayConfig struct {
	Message    string // Text to display, empty means DefaultMessage
	Command    string // Shell command line run on confirmation
	Stylesheet string // Path to a CSS file, empty means the built-in theme
}

// DisplayConfig holds display server related configuration
type DisplayConfig struct {
	Backend string // auto, layershell or x11
	Layer   string // top or overlay, layer-shell only
}

// LogConfig holds logging configuration
type LogConfig struct {
	Verbose bool
	Debug   bool
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Backend: BackendAuto,
			Layer:   LayerTop,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Overlay.Command) == "" {
		return errors.New("command is required")
	}

	switch c.Display.Backend {
	case BackendAuto, BackendLayerShell, BackendX11:
	default:
		return errors.Errorf("backend must be one of %s, %s, %s, got %q",
			BackendAuto, BackendLayerShell, BackendX11, c.Display.Backend)
	}

	switch c.Display.Layer {
	case LayerTop, LayerOverlay:
	default:
		return errors.Errorf("layer must be %s or %s, got %q", LayerTop, LayerOverlay, c.Display.Layer)
	}

	return nil
}

// MessageText returns the configured message or the default one
func (c *Config) MessageText() string {
	if c.Overlay.Message == "" {
		return DefaultMessage
	}
	return c.Overlay.Message
}

// DisplayText returns the full label shown on the overlay
func (c *Config) DisplayText() string {
	return c.MessageText() + "\n" + Hint
}

// String returns a string representation of the config
func (c *Config) String() string {
	stylesheet := c.Overlay.Stylesheet
	if stylesheet == "" {
		stylesheet = "(builtin)"
	}
	return fmt.Sprintf(`Configuration:
  Overlay:
    Message: %q
    Command: %q
    Stylesheet: %s
  Display:
    Backend: %s
    Layer: %s
  Log:
    Verbose: %v
    Debug: %v`,
		c.MessageText(),
		c.Overlay.Command,
		stylesheet,
		c.Display.Backend,
		c.Display.Layer,
		c.Log.Verbose,
		c.Log.Debug,
	)
}
