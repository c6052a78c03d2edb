package domain

import (
	"crypto/rand"
)

// runHashAlphabet is the character set run hashes are drawn from: lowercase
// letters and digits.
const runHashAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// runHashLen is the fixed length of a run hash.
const runHashLen = 6

// RunContext is immutable for the duration of one run and is handed by
// reference to every worktree and engine call the runner triggers.
type RunContext struct {
	Project string
	Sprint  int
	Hash    string
}

// NewRunContext builds a RunContext for the given project and sprint
// number, generating a fresh cryptographically random run hash.
func NewRunContext(project string, sprint int) (RunContext, error) {
	hash, err := GenerateRunHash()
	if err != nil {
		return RunContext{}, err
	}
	return RunContext{Project: project, Sprint: sprint, Hash: hash}, nil
}

// GenerateRunHash produces a 6-character run hash drawn uniformly from
// a-z0-9 using a cryptographically adequate RNG.
func GenerateRunHash() (string, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// discarded, so the modulo below does not favour any character.
	limit := 256 - 256%len(runHashAlphabet)
	buf := make([]byte, runHashLen)
	out := make([]byte, 0, runHashLen)
	for len(out) < runHashLen {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < runHashLen {
				out = append(out, runHashAlphabet[int(b)%len(runHashAlphabet)])
			}
		}
	}
	return string(out), nil
}

// SprintBranch returns this run's sprint branch name.
func (rc RunContext) SprintBranch() string {
	return SprintBranchName(rc.Project, rc.Sprint, rc.Hash)
}

// AgentBranch returns this run's per-task agent branch name for the agent
// with the given initial.
func (rc RunContext) AgentBranch(initial byte) string {
	name, ok := NameFromInitial(initial)
	if !ok {
		name = "agent"
	}
	return AgentBranchName(rc.Project, name, rc.Hash)
}
