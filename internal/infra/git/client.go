// Package git provides git operations.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/gitverify"
)

// Client provides git operations.
type Client struct {
	repoRoot   string // Main repository root (parent of .git)
	gitDir     string // Common .git directory
	workingDir string // Current working directory (may be worktree)
	verify     *gitverify.Verifier
}

// NewClient creates a new git client by detecting the repository root from the given directory.
// It handles both regular repositories and worktrees.
func NewClient(dir string) (*Client, error) {
	repoRoot, gitDir, workingDir, err := findGitRoot(dir)
	if err != nil {
		return nil, err
	}
	verify, err := gitverify.Open(workingDir)
	if err != nil {
		return nil, err
	}
	return &Client{
		repoRoot:   repoRoot,
		gitDir:     gitDir,
		workingDir: workingDir,
		verify:     verify,
	}, nil
}

// IsAncestor reports whether commit a is an ancestor of commit b, answered
// via go-git's object graph rather than shelling out.
func (c *Client) IsAncestor(a, b string) (bool, error) {
	return c.verify.IsAncestor(a, b)
}

// ParentCount returns the number of parents of the given commit.
func (c *Client) ParentCount(commit string) (int, error) {
	return c.verify.ParentCount(commit)
}

// RepoRoot returns the repository root directory.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}

// GitDir returns the .git directory path.
func (c *Client) GitDir() string {
	return c.gitDir
}

// CurrentBranch returns the name of the current branch.
// Uses workingDir to correctly detect branch in worktrees.
func (c *Client) CurrentBranch() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = c.workingDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BranchExists checks if a branch exists.
func (c *Client) BranchExists(branch string) (bool, error) {
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = c.repoRoot
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check branch existence: %w", err)
}

// HasUncommittedChanges checks for uncommitted changes in a directory.
// Returns true if there are uncommitted changes (staged or unstaged).
func (c *Client) HasUncommittedChanges(dir string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check uncommitted changes: %w", err)
	}
	return len(out) > 0, nil
}

// Merge merges a branch into the current branch of the working directory.
// If noFF is true, a merge commit is always created (--no-ff).
func (c *Client) Merge(branch string, noFF bool) error {
	args := []string{"merge"}
	if noFF {
		args = append(args, "--no-ff")
	}
	args = append(args, branch)

	cmd := exec.Command("git", args...)
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to merge branch %s: %w: %s", branch, err, string(out))
	}
	return nil
}

// DeleteBranch deletes a branch. If force is true, it uses -D (force
// delete), otherwise -d.
func (c *Client) DeleteBranch(branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	cmd := exec.Command("git", "branch", flag, branch)
	cmd.Dir = c.repoRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w: %s", branch, err, string(out))
	}
	return nil
}

// CheckoutBranch checks out an existing branch in the working directory.
func (c *Client) CheckoutBranch(branch string) error {
	cmd := exec.Command("git", "checkout", branch)
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w: %s", branch, err, string(out))
	}
	return nil
}

// FastForwardPull attempts a best-effort fast-forward pull from the
// checked-out branch's upstream, if one is configured. Absence of an
// upstream is not an error.
func (c *Client) FastForwardPull() error {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	cmd.Dir = c.workingDir
	if err := cmd.Run(); err != nil {
		// No upstream configured; nothing to pull.
		return nil
	}

	cmd = exec.Command("git", "pull", "--ff-only")
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to fast-forward pull: %w: %s", err, string(out))
	}
	return nil
}

// Push pushes a branch to its remote "origin". The merge protocol never
// force-pushes; force is kept for interface symmetry and ignored.
func (c *Client) Push(branch string, force bool) error {
	cmd := exec.Command("git", "push", "origin", branch)
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to push branch %s: %w: %s", branch, err, string(out))
	}
	return nil
}

// HasMergeHead reports whether the working directory has a MERGE_HEAD,
// i.e. a merge is in progress (possibly left over from a crashed run).
func (c *Client) HasMergeHead() (bool, error) {
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "MERGE_HEAD")
	cmd.Dir = c.workingDir
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check MERGE_HEAD: %w", err)
}

// AbortMerge aborts an in-progress merge.
func (c *Client) AbortMerge() error {
	cmd := exec.Command("git", "merge", "--abort")
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to abort merge: %w: %s", err, string(out))
	}
	return nil
}

// CurrentCommit returns the full hash of HEAD in the working directory.
func (c *Client) CurrentCommit() (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = c.workingDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current commit: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CreateBranchAt force-creates branch pointing at commit, overwriting any
// existing branch of that name.
func (c *Client) CreateBranchAt(branch, commit string) error {
	cmd := exec.Command("git", "branch", "-f", branch, commit)
	cmd.Dir = c.repoRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create branch %s at %s: %w: %s", branch, commit, err, string(out))
	}
	return nil
}

// Log returns `git log --stat` output for the range from..to, run in the
// working directory.
func (c *Client) Log(from, to string) (string, error) {
	cmd := exec.Command("git", "log", "--stat", from+".."+to)
	cmd.Dir = c.workingDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git log %s..%s: %w", from, to, err)
	}
	return string(out), nil
}

// CommitPaths stages exactly the given paths in the working directory and
// commits them, skipping the commit entirely if staging produced no
// changes (e.g. paths already matched HEAD).
func (c *Client) CommitPaths(paths []string, message string) (bool, error) {
	args := append([]string{"add", "--"}, paths...)
	cmd := exec.Command("git", args...)
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return false, fmt.Errorf("failed to stage %v: %w: %s", paths, err, string(out))
	}

	cmd = exec.Command("git", "diff", "--cached", "--quiet")
	cmd.Dir = c.workingDir
	if err := cmd.Run(); err == nil {
		return false, nil
	}

	cmd = exec.Command("git", "commit", "-m", message)
	cmd.Dir = c.workingDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return false, fmt.Errorf("failed to commit %v: %w: %s", paths, err, string(out))
	}
	return true, nil
}

// ListBranches returns a list of all local branches.
func (c *Client) ListBranches() ([]string, error) {
	cmd := exec.Command("git", "branch", "--format=%(refname:short)")
	cmd.Dir = c.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	var branches []string
	for _, line := range lines {
		if line != "" {
			branches = append(branches, strings.TrimSpace(line))
		}
	}
	return branches, nil
}

// findGitRoot finds the git repository root and .git directory from the given directory.
// This works correctly both in the main repository and inside worktrees.
func findGitRoot(dir string) (repoRoot, gitDir, workingDir string, err error) {
	cmd := exec.Command("git", "rev-parse", "--git-common-dir")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", "", "", domain.ErrNotGitRepository
	}
	gitDir = strings.TrimSpace(string(out))

	cmd = exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	toplevel, err := cmd.Output()
	if err != nil {
		return "", "", "", fmt.Errorf("failed to find toplevel: %w", err)
	}
	workingDir = strings.TrimSpace(string(toplevel))

	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	gitDir = filepath.Clean(gitDir)
	repoRoot = filepath.Dir(gitDir)

	return repoRoot, gitDir, workingDir, nil
}

// Ensure Client implements domain.Git.
var _ domain.Git = (*Client)(nil)
