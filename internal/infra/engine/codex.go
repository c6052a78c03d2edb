package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
)

// CodexEngine drives the codex CLI's non-interactive "exec" subcommand.
// When DebugDir is set it additionally streams codex's JSONL event
// protocol to a per-agent debug file, named from the working directory's
// base name (the agent's worktree directory, named after the agent
// branch, e.g. "proj-agent-aaron-ab12cd").
type CodexEngine struct {
	cliPath     string
	registry    *procreg.Registry
	debugDir    string
	onHeartbeat func(elapsed time.Duration)
}

// NewCodexEngine resolves the codex CLI on PATH and returns an engine
// that supervises it through registry.
func NewCodexEngine(registry *procreg.Registry) *CodexEngine {
	return &CodexEngine{cliPath: resolveCLIPath("codex"), registry: registry}
}

// WithDebugDir enables JSONL event streaming to
// <debugDir>/codex-debug-<agent>.jsonl for every call, where <agent> is
// the base name of the call's workingDir.
func (e *CodexEngine) WithDebugDir(debugDir string) *CodexEngine {
	e.debugDir = debugDir
	return e
}

// WithHeartbeat installs a callback invoked roughly every five minutes
// while a subprocess is still running, so callers can log progress.
func (e *CodexEngine) WithHeartbeat(fn func(elapsed time.Duration)) *CodexEngine {
	e.onHeartbeat = fn
	return e
}

func (e *CodexEngine) Type() domain.EngineType {
	return domain.EngineType{Kind: domain.EngineKindCodex}
}

func (e *CodexEngine) Execute(ctx context.Context, prompt, workingDir string, timeout time.Duration) (domain.EngineResult, error) {
	var debugFile *os.File
	args := []string{"exec"}

	if e.debugDir != "" {
		agent := filepath.Base(workingDir)
		debugPath := filepath.Join(e.debugDir, fmt.Sprintf("codex-debug-%s.jsonl", agent))
		f, err := os.Create(debugPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] warning: could not create debug file %s: %v\n", agent, debugPath, err)
		} else {
			debugFile = f
			args = append(args, "--json")
		}
	}
	args = append(args, "--dangerously-bypass-approvals-and-sandbox", "-")

	cmd := exec.Command(e.cliPath, args...)
	cmd.Dir = workingDir
	cmd.Env = os.Environ()

	var onLine func(line string)
	if debugFile != nil {
		defer debugFile.Close()
		onLine = func(line string) {
			fmt.Fprintln(debugFile, line)
			_ = debugFile.Sync()
		}
	}

	return runSupervisedStreaming(ctx, cmd, prompt, timeout, e.registry, e.onHeartbeat, onLine)
}
