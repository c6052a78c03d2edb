// Package config loads swarm-hug's TOML configuration: the embedded
// default, optionally overridden by a per-repository config.toml.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// FileName is the repo-level override file name, resolved relative to the
// repository root's .swarm-hug directory.
const FileName = "config.toml"

// Loader loads and merges configuration for one repository.
type Loader struct {
	repoRoot string
}

// NewLoader returns a Loader rooted at repoRoot.
func NewLoader(repoRoot string) *Loader {
	return &Loader{repoRoot: repoRoot}
}

// Load returns the embedded default configuration, overridden field-by-field
// by .swarm-hug/config.toml if that file exists. A missing override file is
// not an error.
func (l *Loader) Load() (domain.Config, error) {
	base := domain.NewDefaultConfig()

	path := filepath.Join(l.repoRoot, ".swarm-hug", FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return domain.Config{}, err
	}

	override, err := domain.ParseConfigTOML(data)
	if err != nil {
		return domain.Config{}, err
	}

	return mergeConfigs(base, override), nil
}

// mergeConfigs overrides base with every non-zero field set in override.
func mergeConfigs(base, override domain.Config) domain.Config {
	result := base

	if override.DefaultEngine != "" {
		result.DefaultEngine = override.DefaultEngine
	}
	if len(override.Engines) > 0 {
		result.Engines = override.Engines
	}
	if len(override.Agent.Names) > 0 {
		result.Agent.Names = override.Agent.Names
	}
	if override.MaxAgents != 0 {
		result.MaxAgents = override.MaxAgents
	}
	if override.TasksPerAgent != 0 {
		result.TasksPerAgent = override.TasksPerAgent
	}
	if override.TimeoutSeconds != 0 {
		result.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.Push {
		result.Push = override.Push
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}

	return result
}
