package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
)

// ClaudeEngine drives the claude CLI in non-interactive print mode,
// reading the rendered prompt from stdin. It also backs the OpenRouter
// variant, which is the same CLI with ANTHROPIC_BASE_URL and
// ANTHROPIC_MODEL redirected rather than a distinct binary.
type ClaudeEngine struct {
	cliPath         string
	registry        *procreg.Registry
	openRouterModel string
	onHeartbeat     func(elapsed time.Duration)
}

// NewClaudeEngine resolves the claude CLI on PATH and returns an engine
// that supervises it through registry.
func NewClaudeEngine(registry *procreg.Registry) *ClaudeEngine {
	return &ClaudeEngine{cliPath: resolveCLIPath("claude"), registry: registry}
}

// WithOpenRouterModel switches this engine to dispatch through
// OpenRouter for the given model, still using the claude CLI.
func (e *ClaudeEngine) WithOpenRouterModel(model string) *ClaudeEngine {
	e.openRouterModel = model
	return e
}

// WithHeartbeat installs a callback invoked roughly every five minutes
// while a subprocess is still running, so callers can log progress.
func (e *ClaudeEngine) WithHeartbeat(fn func(elapsed time.Duration)) *ClaudeEngine {
	e.onHeartbeat = fn
	return e
}

func (e *ClaudeEngine) Type() domain.EngineType {
	if e.openRouterModel != "" {
		return domain.EngineType{Kind: domain.EngineKindOpenRouter, Model: e.openRouterModel}
	}
	return domain.EngineType{Kind: domain.EngineKindClaude}
}

func (e *ClaudeEngine) Execute(ctx context.Context, prompt, workingDir string, timeout time.Duration) (domain.EngineResult, error) {
	cmd := exec.Command(e.cliPath, "--dangerously-skip-permissions", "--print", "-p", "-")
	cmd.Dir = workingDir
	cmd.Env = os.Environ()

	if e.openRouterModel != "" {
		baseURL := os.Getenv("OPENROUTER_BASE_URL")
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return domain.EngineResult{}, fmt.Errorf("engine: OPENROUTER_API_KEY is not set")
		}
		cmd.Env = append(cmd.Env,
			"ANTHROPIC_BASE_URL="+baseURL,
			"ANTHROPIC_API_KEY="+apiKey,
			"ANTHROPIC_MODEL="+e.openRouterModel,
		)
	}

	return runSupervised(ctx, cmd, prompt, timeout, e.registry, e.onHeartbeat)
}
