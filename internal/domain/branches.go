package domain

import "fmt"

// BranchExistsChecker is the narrow capability branch resolution needs from
// the Git port: checking whether a local branch exists and getting the
// checked-out branch of a working directory.
type BranchExistsChecker interface {
	BranchExists(branch string) (bool, error)
	CurrentBranch() (string, error)
}

// ResolvedBranches is the outcome of resolving a run's source and target
// branches, cached on the RunContext for the duration of the run.
type ResolvedBranches struct {
	Source string
	Target string
}

// ResolveBranches implements the source/target resolution table: when both source
// and target are absent, auto-detect (prefer "main", then "master", then
// the current branch) and use it for both. When only source is given, it
// is used for both. Target alone without source is an error. Both given
// uses them as-is.
func ResolveBranches(git BranchExistsChecker, source, target string) (ResolvedBranches, error) {
	switch {
	case source == "" && target == "":
		detected, err := autoDetectBranch(git)
		if err != nil {
			return ResolvedBranches{}, err
		}
		return ResolvedBranches{Source: detected, Target: detected}, nil

	case source != "" && target == "":
		return ResolvedBranches{Source: source, Target: source}, nil

	case source == "" && target != "":
		return ResolvedBranches{}, fmt.Errorf("%w: target branch %q given without a source branch", ErrAmbiguousTarget, target)

	default:
		return ResolvedBranches{Source: source, Target: target}, nil
	}
}

// autoDetectBranch prefers "main" if it exists locally, else "master", else
// the current branch.
func autoDetectBranch(git BranchExistsChecker) (string, error) {
	for _, candidate := range []string{"main", "master"} {
		ok, err := git.BranchExists(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return git.CurrentBranch()
}
