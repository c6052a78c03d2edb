package domain

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// defaultConfigToml is the built-in configuration, used whenever a
// repository has no .swarm-hug/config.toml override.
//
//go:embed config.toml
var defaultConfigToml string

// NewDefaultConfig returns the built-in configuration: claude as the sole
// engine, a 5-agent roster capped at one task each, a one-hour engine
// timeout, push disabled, and info-level logging.
func NewDefaultConfig() Config {
	cfg, err := ParseConfigTOML([]byte(defaultConfigToml))
	if err != nil {
		// The embedded default is authored by us and covered by tests; a
		// parse failure here means the embed itself is broken.
		panic(fmt.Sprintf("domain: embedded default config.toml is invalid: %v", err))
	}
	return cfg
}

// ParseConfigTOML unmarshals a TOML document into a Config.
func ParseConfigTOML(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config toml: %w", err)
	}
	return cfg, nil
}
