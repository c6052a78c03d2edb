// Package worktree provides git worktree operations.
package worktree

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Client manages git worktrees.
type Client struct {
	repoRoot string // Main repository root
}

// NewClient creates a new worktree client. repoRoot is the main repository
// root directory.
func NewClient(repoRoot string) *Client {
	return &Client{repoRoot: repoRoot}
}

// Ensure Client implements domain.WorktreeManager interface.
var _ domain.WorktreeManager = (*Client)(nil)

// Create creates a worktree for branch at the default path under
// <repoRoot>/.swarm-hug/worktrees, forking the branch from baseBranch if it
// does not exist yet. Callers that need their own directory scheme
// (sprint, agent, and target worktrees) use CreateAt with an explicit path.
func (c *Client) Create(branch, baseBranch string) (string, error) {
	return c.CreateAt(defaultWorktreePath(c.repoRoot, branch), branch, baseBranch)
}

// CreateAt creates a worktree for branch at the given explicit path,
// creating the branch from baseBranch if it does not already exist.
// Before creating, it consults the live worktree registration: if the
// path or branch is already registered but the directory is missing on
// disk, it force-removes the stale registration and retries once.
func (c *Client) CreateAt(path, branch, baseBranch string) (string, error) {
	exists, err := c.Exists(branch)
	if err != nil {
		return "", fmt.Errorf("check worktree exists: %w", err)
	}
	if exists {
		existingPath, err := c.Resolve(branch)
		if err != nil {
			return "", err
		}
		return existingPath, nil
	}

	branchExists, err := c.branchExists(branch)
	if err != nil {
		return "", fmt.Errorf("check branch exists: %w", err)
	}

	var args []string
	if branchExists {
		args = []string{"worktree", "add", path, branch}
	} else {
		args = []string{"worktree", "add", "-b", branch, path, baseBranch}
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		outStr := string(out)
		if strings.Contains(outStr, "already registered") {
			if pruneErr := c.prune(); pruneErr != nil {
				return "", fmt.Errorf("prune stale worktrees: %w", pruneErr)
			}
			cmd = exec.Command("git", args...)
			cmd.Dir = c.repoRoot
			out, err = cmd.CombinedOutput()
			if err != nil {
				return "", fmt.Errorf("create worktree after prune: %w: %s", err, string(out))
			}
		} else {
			return "", fmt.Errorf("create worktree: %w: %s", err, outStr)
		}
	}

	return path, nil
}

// Resolve returns the path of an existing worktree for the branch.
func (c *Client) Resolve(branch string) (string, error) {
	worktrees, err := c.List()
	if err != nil {
		return "", err
	}

	for _, wt := range worktrees {
		if wt.Branch == branch {
			return wt.Path, nil
		}
	}

	return "", domain.ErrWorktreeNotFound
}

// Remove deletes a worktree. If force is false and the worktree has
// uncommitted changes, returns ErrUncommittedChanges.
func (c *Client) Remove(branch string, force bool) error {
	path, err := c.Resolve(branch)
	if err != nil {
		return err
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)

	cmd := exec.Command("git", args...)
	cmd.Dir = c.repoRoot

	out, err := cmd.CombinedOutput()
	if err != nil {
		outStr := string(out)
		if strings.Contains(outStr, "contains modified or untracked files") ||
			strings.Contains(outStr, "is dirty") {
			return domain.ErrUncommittedChanges
		}
		return fmt.Errorf("remove worktree: %w: %s", err, outStr)
	}

	return nil
}

// Exists checks if a worktree exists for the branch.
// Returns true only if both git registration and directory exist.
func (c *Client) Exists(branch string) (bool, error) {
	worktrees, err := c.List()
	if err != nil {
		return false, err
	}

	for _, wt := range worktrees {
		if wt.Branch == branch {
			if _, err := os.Stat(wt.Path); err != nil {
				if os.IsNotExist(err) {
					return false, nil
				}
				return false, fmt.Errorf("check worktree directory: %w", err)
			}
			return true, nil
		}
	}

	return false, nil
}

// List returns all worktrees.
func (c *Client) List() ([]domain.WorktreeInfo, error) {
	cmd := exec.Command("git", "worktree", "list", "--porcelain")
	cmd.Dir = c.repoRoot

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	return parseWorktreeList(string(out))
}

// ResolveSharedTarget resolves (creating if necessary) the long-lived
// shared worktree for targetBranch under sharedRoot. If a worktree already
// exists for the branch, its canonicalized path must be a descendant of
// sharedRoot or resolution fails — this rejects symlink/".." escapes and
// catches a worktree registered somewhere else entirely.
func (c *Client) ResolveSharedTarget(sharedRoot, targetBranch string) (string, error) {
	canonicalRoot, err := filepath.EvalSymlinks(sharedRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("canonicalize shared root: %w", err)
		}
		if err := os.MkdirAll(sharedRoot, 0o755); err != nil {
			return "", fmt.Errorf("create shared root: %w", err)
		}
		canonicalRoot, err = filepath.EvalSymlinks(sharedRoot)
		if err != nil {
			return "", fmt.Errorf("canonicalize shared root: %w", err)
		}
	}

	existing, err := c.Resolve(targetBranch)
	if err == nil {
		canonicalExisting, err := filepath.EvalSymlinks(existing)
		if err != nil {
			return "", fmt.Errorf("canonicalize existing target worktree: %w", err)
		}
		if !isDescendant(canonicalRoot, canonicalExisting) {
			return "", fmt.Errorf("%w: target worktree for %s exists outside the shared root", domain.ErrWorktreeOccupied, targetBranch)
		}
		return existing, nil
	}
	if err != domain.ErrWorktreeNotFound {
		return "", err
	}

	path := filepath.Join(sharedRoot, domain.SanitizeBranchForPath(targetBranch))
	return c.CreateAt(path, targetBranch, targetBranch)
}

// isDescendant reports whether child is equal to or nested under root,
// both already canonicalized.
func isDescendant(root, child string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// defaultWorktreePath is used only by the legacy Create entrypoint; callers
// needing explicit placement (sprint/agent/target schemes) use CreateAt.
func defaultWorktreePath(repoRoot, branch string) string {
	return filepath.Join(repoRoot, ".swarm-hug", "worktrees", domain.SanitizeBranchForPath(branch))
}

// parseWorktreeList parses the porcelain output of git worktree list.
// Format:
//
//	worktree /path/to/worktree
//	HEAD abc123
//	branch refs/heads/branch-name
//	<blank line>
func parseWorktreeList(output string) ([]domain.WorktreeInfo, error) {
	var worktrees []domain.WorktreeInfo
	var current domain.WorktreeInfo

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "":
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = domain.WorktreeInfo{}
		}
	}

	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse worktree list: %w", err)
	}

	return worktrees, nil
}

// prune removes stale worktree entries.
func (c *Client) prune() error {
	cmd := exec.Command("git", "worktree", "prune")
	cmd.Dir = c.repoRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("prune worktrees: %w: %s", err, string(out))
	}

	return nil
}

// branchExists checks if a branch exists in the repository.
func (c *Client) branchExists(branch string) (bool, error) {
	ref := "refs/heads/" + branch
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", ref)
	cmd.Dir = c.repoRoot

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("check branch exists: %w", err)
	}

	return true, nil
}
