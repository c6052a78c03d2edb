package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SprintBranchName returns the branch name for a sprint worktree.
// Format: <project>-sprint-<n>-<hash>.
func SprintBranchName(project string, sprint int, hash string) string {
	return fmt.Sprintf("%s-sprint-%d-%s", project, sprint, hash)
}

// AgentBranchName returns the branch name for a per-task agent worktree.
// Format: <project>-agent-<name>-<hash>.
func AgentBranchName(project, agentName, hash string) string {
	return fmt.Sprintf("%s-agent-%s-%s", project, strings.ToLower(agentName), hash)
}

// sprintBranchPattern matches sprint branches produced by SprintBranchName.
var sprintBranchPattern = regexp.MustCompile(`^(.+)-sprint-(\d+)-([a-z0-9]+)$`)

// agentBranchPattern matches agent branches produced by AgentBranchName.
var agentBranchPattern = regexp.MustCompile(`^(.+)-agent-([a-z]+)-([a-z0-9]+)$`)

// ParseSprintBranch extracts the project, sprint number, and run hash from a
// sprint branch name. Returns ok=false if branch does not match the scheme.
func ParseSprintBranch(branch string) (project string, sprint int, hash string, ok bool) {
	m := sprintBranchPattern.FindStringSubmatch(branch)
	if m == nil {
		return "", 0, "", false
	}
	n := 0
	for _, c := range m[2] {
		n = n*10 + int(c-'0')
	}
	return m[1], n, m[3], true
}

// ParseAgentBranch extracts the project, agent name, and run hash from an
// agent branch name. Returns ok=false if branch does not match the scheme.
func ParseAgentBranch(branch string) (project, agentName, hash string, ok bool) {
	m := agentBranchPattern.FindStringSubmatch(branch)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// SwarmHugDir returns the per-project state directory: <repoRoot>/.swarm-hug/<project>.
func SwarmHugDir(repoRoot, project string) string {
	return filepath.Join(repoRoot, ".swarm-hug", project)
}

// TasksFilePath returns the path to the project's task checklist.
func TasksFilePath(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "tasks.md")
}

// ChatLogPath returns the path to the operator-facing chat log.
func ChatLogPath(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "chat.md")
}

// SpecsFilePath returns the path to the project's specs document.
func SpecsFilePath(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "specs.md")
}

// PromptFilePath returns the path to the repo-level prompt override.
func PromptFilePath(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "prompt.md")
}

// WorktreesDir returns the directory holding per-sprint worktrees.
func WorktreesDir(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "worktrees")
}

// SprintWorktreeDir returns the worktree directory for a given sprint branch.
func SprintWorktreeDir(repoRoot, project, sprintBranch string) string {
	return filepath.Join(WorktreesDir(repoRoot, project), sprintBranch)
}

// AgentWorktreeDir returns the worktree directory for a given per-task
// agent branch, nested alongside sprint worktrees under the same
// project-scoped worktrees/ directory.
func AgentWorktreeDir(repoRoot, project, agentBranch string) string {
	return filepath.Join(WorktreesDir(repoRoot, project), agentBranch)
}

// LoopDir returns the directory holding run/agent log files.
func LoopDir(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "loop")
}

// RunLogPath returns the path to the global per-run log file.
func RunLogPath(repoRoot, project string) string {
	return filepath.Join(LoopDir(repoRoot, project), "run.log")
}

// AgentLogPath returns the path to a per-agent log file.
func AgentLogPath(repoRoot, project, agentName string) string {
	return filepath.Join(LoopDir(repoRoot, project), strings.ToLower(agentName)+".log")
}

// PromptsDir returns the directory holding prompt templates.
func PromptsDir(repoRoot, project string) string {
	return filepath.Join(SwarmHugDir(repoRoot, project), "prompts")
}

// EmailFilePath returns the path to the optional co-author email file.
// Unlike other per-project paths, this one is shared at the repo level.
func EmailFilePath(repoRoot string) string {
	return filepath.Join(repoRoot, ".swarm-hug", "email.txt")
}

// sanitizePattern matches characters not safe for use in a shared worktree
// directory name; anything matching is replaced with "-".
var sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeBranchForPath converts a branch name into a filesystem-safe
// directory component.
func SanitizeBranchForPath(branch string) string {
	return sanitizePattern.ReplaceAllString(branch, "-")
}

// SharedTargetWorktreeDir returns the long-lived, shared worktree root for a
// target branch: <repo>/swarm-hub/.shared/worktrees/<sanitized-branch>.
func SharedTargetWorktreeDir(repoRoot, targetBranch string) string {
	return filepath.Join(repoRoot, "swarm-hub", ".shared", "worktrees", SanitizeBranchForPath(targetBranch))
}

// SprintHistoryPath returns the path of the SprintHistory record inside a
// sprint worktree.
func SprintHistoryPath(sprintWorktreeDir string) string {
	return filepath.Join(sprintWorktreeDir, "sprint-history.yaml")
}

// TeamStatePath returns the path of the TeamState record inside a sprint
// worktree.
func TeamStatePath(sprintWorktreeDir string) string {
	return filepath.Join(sprintWorktreeDir, "team-state.yaml")
}

// RunManifestPath returns the path of the RunManifest record inside a
// sprint worktree.
func RunManifestPath(sprintWorktreeDir string) string {
	return filepath.Join(sprintWorktreeDir, "run-manifest.yaml")
}
