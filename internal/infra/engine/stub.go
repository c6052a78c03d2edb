package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// StubEngine never spawns a subprocess. It writes a deterministic output
// file under OutputDir for every call, keyed by the agent's worktree
// directory name and a per-agent call counter standing in for the
// caller's turn number, so repeated test runs see stable filenames.
type StubEngine struct {
	outputDir string

	mu     sync.Mutex
	turns  map[string]int
}

// NewStubEngine returns a stub engine writing output files under
// outputDir (typically the project's loop/ directory).
func NewStubEngine(outputDir string) *StubEngine {
	return &StubEngine{outputDir: outputDir, turns: make(map[string]int)}
}

func (e *StubEngine) Type() domain.EngineType {
	return domain.EngineType{Kind: domain.EngineKindStub}
}

func (e *StubEngine) Execute(ctx context.Context, prompt, workingDir string, timeout time.Duration) (domain.EngineResult, error) {
	agentName := filepath.Base(workingDir)
	if _, _, parsedName, ok := splitAgentBranchDir(agentName); ok {
		agentName = parsedName
	}
	initial, ok := domain.InitialFromNameLower(agentName)
	if !ok {
		initial = '?'
	}

	turn := e.nextTurn(agentName)

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return domain.EngineResult{}, fmt.Errorf("stub engine: create output dir: %w", err)
	}

	content := fmt.Sprintf("# Stub Output\n\nAgent: %s\nTurn: %d\n\n%s\nOK\n", agentName, turn, prompt)
	outputPath := filepath.Join(e.outputDir, fmt.Sprintf("turn%d-agent%c.md", turn, initial))
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return domain.EngineResult{}, fmt.Errorf("stub engine: write output: %w", err)
	}

	return domain.EngineResult{Success: true, ExitCode: 0, Stdout: content}, nil
}

func (e *StubEngine) nextTurn(agentName string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns[agentName]++
	return e.turns[agentName]
}

// splitAgentBranchDir recovers the agent name from a worktree directory
// whose base name is an agent branch (<project>-agent-<name>-<hash>); ok
// is false for any other directory naming, e.g. the sprint worktree
// itself or a caller-supplied test path.
func splitAgentBranchDir(base string) (project, hash, agentName string, ok bool) {
	project, agentName, hash, ok = domain.ParseAgentBranch(base)
	return project, hash, agentName, ok
}
