package main

import (
	"fmt"
	"os"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/config"
	"github.com/spf13/cobra"
)

// runOptions are the run command's flag values, applied as overrides on
// top of the loaded configuration; a flag only overrides when the operator
// actually set it (cobra's Changed()), so an unset flag never clobbers a
// repo's config.toml with a zero value.
type runOptions struct {
	project       string
	source        string
	target        string
	maxAgents     int
	tasksPerAgent int
	engines       []string
	timeoutSecs   int
	maxSprints    int
	stub          bool
	push          bool
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run sprints until the task backlog is drained, a sprint cap is hit, or shutdown is requested",
		Long: `run drives the sprint loop: plan, execute, review, integrate.

Each sprint forks a fresh sprint branch and worktree from the target
branch's current tip, assigns backlog tasks to agents, runs each agent's
engine subprocess, reviews the sprint's commits for follow-up work, then
merges the sprint branch back into the target branch with a verified
two-parent merge.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("%w: get current directory: %v", errConfiguration, err)
			}
			if opts.project == "" {
				return fmt.Errorf("%w: --project is required", errConfiguration)
			}

			cfg, err := config.NewLoader(cwd).Load()
			if err != nil {
				return fmt.Errorf("%w: load config: %v", errConfiguration, err)
			}
			cfg = applyFlagOverrides(cfg, cmd, opts)

			return runSprints(cmd.Context(), cwd, opts, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.project, "project", "", "project name, scoping .swarm-hug/<project>")
	flags.StringVar(&opts.source, "source", "", "source branch, also used as the target when --target is not given (default: auto-detect)")
	flags.StringVar(&opts.target, "target", "", "branch to merge completed sprints into (default: same as source)")
	flags.IntVar(&opts.maxAgents, "max-agents", 0, "maximum concurrent agents per sprint (default: from config)")
	flags.IntVar(&opts.tasksPerAgent, "tasks-per-agent", 0, "maximum tasks assigned to one agent per sprint (default: from config)")
	flags.StringSliceVar(&opts.engines, "engine", nil, "engine(s) to draw from for each task (default: from config)")
	flags.IntVar(&opts.timeoutSecs, "timeout", 0, "per-engine-call timeout in seconds, 0 for unbounded (default: from config)")
	flags.IntVar(&opts.maxSprints, "max-sprints", 0, "stop after this many sprints, 0 for unlimited")
	flags.BoolVar(&opts.stub, "stub", false, "use the stub engine only, for dry runs and tests")
	flags.BoolVar(&opts.push, "push", false, "push the target branch after each successful merge; only applies when --target is given (default: from config)")

	return cmd
}

// applyFlagOverrides layers explicitly-set flags on top of the loaded
// configuration, mirroring the precedence config.Loader itself uses for
// the repo override file: only present values replace defaults.
func applyFlagOverrides(cfg domain.Config, cmd *cobra.Command, opts runOptions) domain.Config {
	flags := cmd.Flags()

	if flags.Changed("max-agents") {
		cfg.MaxAgents = opts.maxAgents
	}
	if flags.Changed("tasks-per-agent") {
		cfg.TasksPerAgent = opts.tasksPerAgent
	}
	if flags.Changed("engine") {
		cfg.Engines = opts.engines
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = opts.timeoutSecs
	}
	if flags.Changed("push") {
		cfg.Push = opts.push
	}
	if opts.stub {
		cfg.Engines = []string{"stub"}
	}
	return cfg
}

// engineTimeout returns the configured per-engine-call timeout, 0 meaning
// unbounded.
func engineTimeout(cfg domain.Config) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
