// Package config loads huestorm configuration from TOML files.
package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Highlight modes for color swatches.
const (
	// HighlightBackground paints the literal's background with the color.
	HighlightBackground = "background"
	// HighlightForeground paints the literal's text with the color.
	HighlightForeground = "foreground"
	// HighlightVirtual renders a colored virtual swatch next to the literal.
	HighlightVirtual = "virtual"
)

// Config is the full huestorm configuration.
type Config struct {
	// Enabled activates color synchronization on startup.
	Enabled bool `toml:"enabled"`

	// RefreshWhileTyping controls whether edits made during fast-typing
	// mode trigger an immediate refresh. When false, edits are deferred
	// and coalesced into a single refresh when the mode ends.
	RefreshWhileTyping bool `toml:"refresh_while_typing"`

	Highlight HighlightConfig         `toml:"highlight"`
	Log       LogConfig               `toml:"log"`
	Servers   map[string]ServerConfig `toml:"servers"`
}

// HighlightConfig configures swatch style generation.
type HighlightConfig struct {
	Mode string `toml:"mode"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// ServerConfig describes how to start a language server for a language.
type ServerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Enabled:            true,
		RefreshWhileTyping: false,
		Highlight:          HighlightConfig{Mode: HighlightBackground},
		Log:                LogConfig{Level: "info"},
		Servers: map[string]ServerConfig{
			"go": {Command: "gopls", Args: []string{"serve"}},
		},
	}
}

// Load reads configuration from path, layered over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.Highlight.Mode {
	case HighlightBackground, HighlightForeground, HighlightVirtual:
	default:
		return fmt.Errorf("unknown highlight mode %q", c.Highlight.Mode)
	}

	for lang, srv := range c.Servers {
		if srv.Command == "" {
			return fmt.Errorf("server for %q has no command", lang)
		}
	}
	return nil
}
