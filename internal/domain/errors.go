package domain

import "errors"

// Domain errors, grouped into the error kinds an operator or a caller needs
// to distinguish: configuration, git state, worktree lifecycle, process
// supervision, parsing, and merge outcome.
var (
	// Configuration errors.
	ErrNoAgent           = errors.New("no agent specified")
	ErrUnknownEngineType = errors.New("unknown engine type")
	ErrEngineCLINotFound = errors.New("engine CLI binary not found")

	// Git state errors.
	ErrNotGitRepository = errors.New("not a git repository (or any of the parent directories)")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrNoCommonAncestor  = errors.New("no common ancestor between branches")
	ErrAmbiguousTarget   = errors.New("could not resolve target branch unambiguously")

	// Worktree lifecycle errors.
	ErrWorktreeNotFound   = errors.New("worktree not found")
	ErrUncommittedChanges = errors.New("uncommitted changes exist")
	ErrWorktreeOccupied   = errors.New("worktree already in use by another run")

	// Process supervision errors.
	ErrShutdownRequested = errors.New("shutdown requested")
	ErrAgentTimedOut      = errors.New("agent timed out")
	ErrProcessNotFound    = errors.New("process not found in registry")

	// Task parsing errors.
	ErrEmptyTitle    = errors.New("title cannot be empty")
	ErrInvalidStatus = errors.New("invalid status")
	ErrTaskNotFound  = errors.New("task not found")

	// Merge protocol errors.
	ErrMergeConflict      = errors.New("merge conflict exists")
	ErrMergeVerifyFailed  = errors.New("merge verification failed")
	ErrSquashMergeSuspect = errors.New("merge commit has fewer than two parents, squash merge suspected")
)
