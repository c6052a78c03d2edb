// Package gitverify answers read-only ancestry and parent-count questions
// using go-git's object-level API instead of shelling out, the way
// gitstore reaches for go-git's structured API whenever the answer is a
// graph query rather than a state mutation.
package gitverify

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Verifier opens a repository once and answers ancestry/parent-count
// queries against it by ref or commit-ish name.
type Verifier struct {
	repo *git.Repository
}

// Open opens the repository rooted at repoRoot (or any directory inside
// its working tree or a linked worktree).
func Open(repoRoot string) (*Verifier, error) {
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", repoRoot, err)
	}
	return &Verifier{repo: repo}, nil
}

// IsAncestor reports whether commit a is an ancestor of commit b
// (inclusive: a commit is its own ancestor).
func (v *Verifier) IsAncestor(a, b string) (bool, error) {
	aCommit, err := v.resolveCommit(a)
	if err != nil {
		return false, err
	}
	bCommit, err := v.resolveCommit(b)
	if err != nil {
		return false, err
	}
	if aCommit.Hash == bCommit.Hash {
		return true, nil
	}
	return aCommit.IsAncestor(bCommit)
}

// ParentCount returns the number of parents of the given commit; 2 means
// a true two-parent merge commit.
func (v *Verifier) ParentCount(commit string) (int, error) {
	c, err := v.resolveCommit(commit)
	if err != nil {
		return 0, err
	}
	return c.NumParents(), nil
}

func (v *Verifier) resolveCommit(revision string) (*object.Commit, error) {
	hash, err := v.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit, err := v.repo.CommitObject(*hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("resolve revision %s: commit not found", revision)
		}
		return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	return commit, nil
}
