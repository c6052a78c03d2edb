package engine

import (
	"math/rand/v2"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
)

// SelectEngine picks uniformly at random among the configured engine
// names for a single task, reflecting the policy that no agent is
// statically bound to one backend across a sprint. An empty list falls
// back to "claude".
func SelectEngine(configured []string) string {
	if len(configured) == 0 {
		return "claude"
	}
	if len(configured) == 1 {
		return configured[0]
	}
	return configured[rand.IntN(len(configured))]
}

// BuildOptions configures Build's construction of a named engine.
type BuildOptions struct {
	Registry        *procreg.Registry
	OpenRouterModel string // non-empty switches "claude" to dispatch via OpenRouter
	DebugDir        string // codex JSONL debug streaming target, if non-empty
	StubOutputDir   string // required for kind == "stub"
	OnHeartbeat     func(elapsed time.Duration)
}

// Build constructs the Engine implementation named by kind ("claude",
// "codex", or "stub"), wiring the shared process registry and any
// kind-specific options.
func Build(kind string, opts BuildOptions) (domain.Engine, error) {
	switch kind {
	case "claude":
		e := NewClaudeEngine(opts.Registry)
		if opts.OpenRouterModel != "" {
			e = e.WithOpenRouterModel(opts.OpenRouterModel)
		}
		if opts.OnHeartbeat != nil {
			e = e.WithHeartbeat(opts.OnHeartbeat)
		}
		return e, nil
	case "codex":
		e := NewCodexEngine(opts.Registry)
		if opts.DebugDir != "" {
			e = e.WithDebugDir(opts.DebugDir)
		}
		if opts.OnHeartbeat != nil {
			e = e.WithHeartbeat(opts.OnHeartbeat)
		}
		return e, nil
	case "stub":
		return NewStubEngine(opts.StubOutputDir), nil
	default:
		return nil, domain.ErrUnknownEngineType
	}
}
