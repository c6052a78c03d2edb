package main

import (
	"errors"
	"strings"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Exit codes: 0 success, 2 configuration/usage, 124 engine timeout, 130
// shutdown requested, nonzero (1) otherwise.
const (
	exitSuccess       = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitEngineTimeout = 124
	exitShutdown      = 130
)

// errConfiguration marks an error as a configuration/usage failure: bad
// flags, unresolved branches, a missing task file. Wrap with
// fmt.Errorf("%w: ...", errConfiguration).
var errConfiguration = errors.New("configuration error")

// exitCodeFor classifies a runner error into the exit code contract.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, domain.ErrShutdownRequested):
		return exitShutdown
	case errors.Is(err, errConfiguration):
		return exitConfiguration
	case errors.Is(err, domain.ErrNotGitRepository):
		return exitConfiguration
	case errors.Is(err, domain.ErrAmbiguousTarget):
		return exitConfiguration
	case errors.Is(err, domain.ErrAgentTimedOut) || strings.Contains(err.Error(), "timed out"):
		return exitEngineTimeout
	default:
		return exitFailure
	}
}
