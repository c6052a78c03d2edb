// Package teamstate persists the small per-sprint records (SprintHistory,
// TeamState) plus a run manifest, as YAML files inside the sprint
// worktree — never in the primary working directory, so the primary
// directory stays clean across a sprint.
package teamstate

import (
	"fmt"
	"os"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"gopkg.in/yaml.v3"
)

// ReadSprintHistory reads the SprintHistory record from a sprint worktree,
// returning a zero-value record (total_sprints = 0) if the file does not
// yet exist, which is the normal state for a run's first sprint.
func ReadSprintHistory(sprintWorktreeDir string) (domain.SprintHistory, error) {
	var h domain.SprintHistory
	if err := readYAML(domain.SprintHistoryPath(sprintWorktreeDir), &h); err != nil {
		return domain.SprintHistory{}, err
	}
	return h, nil
}

// WriteSprintHistory writes the SprintHistory record into the sprint
// worktree.
func WriteSprintHistory(sprintWorktreeDir string, h domain.SprintHistory) error {
	return writeYAML(domain.SprintHistoryPath(sprintWorktreeDir), h)
}

// ReadTeamState reads the TeamState record from a sprint worktree, returning
// a zero-value record if the file does not yet exist.
func ReadTeamState(sprintWorktreeDir string) (domain.TeamState, error) {
	var s domain.TeamState
	if err := readYAML(domain.TeamStatePath(sprintWorktreeDir), &s); err != nil {
		return domain.TeamState{}, err
	}
	return s, nil
}

// WriteTeamState writes the TeamState record into the sprint worktree.
func WriteTeamState(sprintWorktreeDir string, s domain.TeamState) error {
	return writeYAML(domain.TeamStatePath(sprintWorktreeDir), s)
}

// WriteRunManifest writes the run manifest into the sprint worktree, for
// post-mortem inspection of which configuration a run used.
func WriteRunManifest(sprintWorktreeDir string, m domain.RunManifest) error {
	return writeYAML(domain.RunManifestPath(sprintWorktreeDir), m)
}

// readYAML decodes path into out, leaving out at its zero value if path
// does not exist.
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("teamstate: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("teamstate: parse %s: %w", path, err)
	}
	return nil
}

func writeYAML(path string, in interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("teamstate: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("teamstate: write %s: %w", path, err)
	}
	return nil
}
