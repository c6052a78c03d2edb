// Package merge implements the sprint-to-target merge protocol:
// preflight, checkout, an LLM-driven merge --no-ff inside the
// target worktree, independent ancestry/parent-count verification, one
// retry, and cleanup on success.
package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Deps are the collaborators the merge protocol needs, all already
// scoped by the caller to the run in progress.
type Deps struct {
	TargetGit domain.Git // bound to the target worktree
	Engine    domain.Engine
	Worktrees domain.WorktreeManager
	RepoRoot  string
	Project   string
}

// Result reports the protocol's outcome.
type Result struct {
	Success    bool
	Diagnostic string // set on failure: which verification check failed
	Retried    bool
}

// Run executes the full protocol against an already-resolved target
// worktree. sprintWorktreePath and sprintBranch are removed on success,
// per step 6; push is attempted (best effort, no force) only when
// pushOnSuccess is true, reflecting a run launched with an explicit
// target branch.
func Run(ctx context.Context, deps Deps, sprintBranch, targetBranch string, pushOnSuccess bool, timeout time.Duration) (Result, error) {
	if err := preflight(deps.TargetGit); err != nil {
		return Result{}, fmt.Errorf("merge: preflight: %w", err)
	}

	if err := deps.TargetGit.CheckoutBranch(targetBranch); err != nil {
		return Result{}, fmt.Errorf("merge: checkout %s: %w", targetBranch, err)
	}
	_ = deps.TargetGit.FastForwardPull() // best effort; no upstream is not an error

	if err := attemptMerge(ctx, deps, sprintBranch, targetBranch, timeout); err != nil {
		return Result{}, fmt.Errorf("merge: %w", err)
	}

	diagnostic := verify(deps.TargetGit, sprintBranch, targetBranch)
	if diagnostic == "" {
		return finish(deps, sprintBranch, targetBranch, pushOnSuccess, false)
	}

	// Retry once with the same inputs.
	if err := attemptMerge(ctx, deps, sprintBranch, targetBranch, timeout); err != nil {
		return Result{}, fmt.Errorf("merge: retry: %w", err)
	}
	diagnostic = verify(deps.TargetGit, sprintBranch, targetBranch)
	if diagnostic == "" {
		return finish(deps, sprintBranch, targetBranch, pushOnSuccess, true)
	}

	return Result{Success: false, Diagnostic: diagnostic, Retried: true}, nil
}

// preflight aborts a merge only if it pre-exists from a previous crashed
// run. Once attemptMerge below has started our own merge, aborting it is
// forbidden by the protocol.
func preflight(g domain.Git) error {
	hasMergeHead, err := g.HasMergeHead()
	if err != nil {
		return fmt.Errorf("check MERGE_HEAD: %w", err)
	}
	if !hasMergeHead {
		return nil
	}
	return g.AbortMerge()
}

// attemptMerge performs the merge --no-ff. The stub engine cannot act as
// an LLM shell agent, so it stands in for "the merge happened cleanly"
// by performing the mechanical merge directly; real engines are handed
// the prescribed prompt and are trusted to run the merge themselves
// inside the target worktree, which is why their result only gates on
// success/failure, not on inspecting stdout.
func attemptMerge(ctx context.Context, deps Deps, sprintBranch, targetBranch string, timeout time.Duration) error {
	if deps.Engine == nil || deps.Engine.Type().Kind == domain.EngineKindStub {
		return deps.TargetGit.Merge(sprintBranch, true)
	}

	prompt := buildMergeAgentPrompt(sprintBranch, targetBranch, deps.RepoRoot, deps.Project)
	workingDir, err := deps.Worktrees.Resolve(targetBranch)
	if err != nil {
		return fmt.Errorf("resolve target worktree: %w", err)
	}
	result, err := deps.Engine.Execute(ctx, prompt, workingDir, timeout)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("merge agent failed: %s", result.Stderr)
	}
	return nil
}

func buildMergeAgentPrompt(sprintBranch, targetBranch, repoRoot, project string) string {
	vars := map[string]string{
		"feature_branch": sprintBranch,
		"target_branch":  targetBranch,
		"co_author":      domain.GenerateCoauthorLine(repoRoot),
	}
	tmpl := domain.LoadPromptTemplate(repoRoot, project, "merge_agent", defaultMergeAgentTemplate)
	return domain.RenderTemplate(tmpl, vars)
}

// verify runs the two independent post-merge checks the protocol requires,
// returning a diagnostic naming which one failed, or "" if both pass.
func verify(g domain.Git, sprintBranch, targetBranch string) string {
	isAncestor, err := g.IsAncestor(sprintBranch, targetBranch)
	if err != nil {
		return fmt.Sprintf("ancestry check errored: %v", err)
	}
	if !isAncestor {
		return fmt.Sprintf("%s is not an ancestor of %s after merge", sprintBranch, targetBranch)
	}

	if sprintBranch == targetBranch {
		return ""
	}

	parents, err := g.ParentCount(targetBranch)
	if err != nil {
		return fmt.Sprintf("parent count check errored: %v", err)
	}
	if parents != 2 {
		return fmt.Sprintf("%s has %d parent(s) after merge, want 2 (squash merge suspected)", targetBranch, parents)
	}
	return ""
}

func finish(deps Deps, sprintBranch, targetBranch string, pushOnSuccess, retried bool) (Result, error) {
	if err := deps.Worktrees.Remove(sprintBranch, true); err != nil {
		return Result{}, fmt.Errorf("merge: remove sprint worktree: %w", err)
	}
	if err := deps.TargetGit.DeleteBranch(sprintBranch, true); err != nil {
		return Result{}, fmt.Errorf("merge: delete sprint branch: %w", err)
	}
	if pushOnSuccess {
		_ = deps.TargetGit.Push(targetBranch, false) // best effort, no force
	}
	return Result{Success: true, Retried: retried}, nil
}
