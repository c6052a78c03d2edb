package domain

// SprintHistory is a small plain-text record living inside the sprint
// worktree, never in the primary working directory.
type SprintHistory struct {
	TotalSprints int `yaml:"total_sprints"`
}

// PeekNextSprint returns the sprint number a new sprint would use, without
// mutating the record.
func (h SprintHistory) PeekNextSprint() int {
	return h.TotalSprints + 1
}

// Increment advances the record to reflect one more completed sprint.
func (h *SprintHistory) Increment() {
	h.TotalSprints++
}

// TeamState is a small plain-text record living inside the sprint worktree
// holding per-project scratch state that survives across sprints but never
// touches the primary working directory.
type TeamState struct {
	FeatureBranch string `yaml:"feature_branch"`
}

// RunManifest records the configuration a run was launched with, written
// alongside SprintHistory and TeamState for post-mortem inspection.
type RunManifest struct {
	Project   string `yaml:"project"`
	RunHash   string `yaml:"run_hash"`
	Sprint    int    `yaml:"sprint"`
	Engine    string `yaml:"engine"`
	StartedAt string `yaml:"started_at"`
}
