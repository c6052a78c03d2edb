package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/chatlog"
	"github.com/seezatnap/swarm-hug/internal/infra/engine"
	"github.com/seezatnap/swarm-hug/internal/infra/git"
	"github.com/seezatnap/swarm-hug/internal/infra/logging"
	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
	"github.com/seezatnap/swarm-hug/internal/infra/shutdown"
	"github.com/seezatnap/swarm-hug/internal/infra/teamstate"
	"github.com/seezatnap/swarm-hug/internal/infra/worktree"
	"github.com/seezatnap/swarm-hug/internal/usecase/merge"
	"github.com/seezatnap/swarm-hug/internal/usecase/plan"
	"github.com/seezatnap/swarm-hug/internal/usecase/review"
	"github.com/seezatnap/swarm-hug/internal/usecase/sprint"
)

// runnerDeps are the collaborators shared across every sprint of one
// invocation, built once in runSprints and threaded through runOneSprint.
type runnerDeps struct {
	repoRoot      string
	project       string
	cfg           domain.Config
	resolved      domain.ResolvedBranches
	primaryGit    domain.Git
	targetGit     domain.Git
	worktrees     domain.WorktreeManager
	logger        *logging.Logger
	engineNames   []string
	engineOpts    engine.BuildOptions
	agentInitials []byte
	pushOnSuccess bool
	targetDir     string
}

// runSprints drives the sprint loop until the backlog is drained, the
// sprint cap is reached, or shutdown is requested.
func runSprints(ctx context.Context, repoRoot string, opts runOptions, cfg domain.Config) error {
	if _, err := os.Stat(filepath.Join(repoRoot, ".git")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotGitRepository, err)
	}

	primaryGit, err := git.NewClient(repoRoot)
	if err != nil {
		return fmt.Errorf("%w: open primary repository: %v", errConfiguration, err)
	}

	resolved, err := domain.ResolveBranches(primaryGit, opts.source, opts.target)
	if err != nil {
		return err
	}

	sharedRoot := filepath.Join(repoRoot, "swarm-hub", ".shared", "worktrees")
	wt := worktree.NewClient(repoRoot)
	targetWorktreePath, err := wt.ResolveSharedTarget(sharedRoot, resolved.Target)
	if err != nil {
		return fmt.Errorf("resolve target worktree: %w", err)
	}

	targetGit, err := git.NewClient(targetWorktreePath)
	if err != nil {
		return fmt.Errorf("open target worktree: %w", err)
	}

	logger := logging.New(repoRoot, opts.project, logging.ParseLevel(cfg.Log.Level))
	defer logger.Close()

	stop, err := shutdown.RegisterHandler(procreg.Global)
	if err != nil {
		return fmt.Errorf("register shutdown handler: %w", err)
	}
	defer stop()

	logger.Info("runner", "startup", fmt.Sprintf("source=%s target=%s engines=%v", resolved.Source, resolved.Target, cfg.Engines))

	deps := runnerDeps{
		repoRoot:   repoRoot,
		project:    opts.project,
		cfg:        cfg,
		resolved:   resolved,
		primaryGit: primaryGit,
		targetGit:  targetGit,
		worktrees:  wt,
		logger:     logger,
		engineNames: cfg.Engines,
		engineOpts: engine.BuildOptions{
			Registry:      procreg.Global,
			StubOutputDir: domain.LoopDir(repoRoot, opts.project),
			OnHeartbeat: func(elapsed time.Duration) {
				logger.Debug("engine", "heartbeat", elapsed.String())
			},
		},
		agentInitials: resolveAgentInitials(cfg),
		pushOnSuccess: cfg.Push && opts.target != "",
		targetDir:     targetWorktreePath,
	}

	sprintNum := 0
	for {
		if shutdown.Requested() {
			return domain.ErrShutdownRequested
		}
		if opts.maxSprints > 0 && sprintNum >= opts.maxSprints {
			logger.Info("runner", "stop", fmt.Sprintf("reached max-sprints=%d", opts.maxSprints))
			return nil
		}
		sprintNum++

		drained, err := runOneSprint(ctx, deps, sprintNum)
		if err != nil {
			logger.Error("runner", "sprint-failed", fmt.Sprintf("sprint %d: %v", sprintNum, err))
			return err
		}
		if drained {
			logger.Info("runner", "drained", fmt.Sprintf("backlog drained after sprint %d", sprintNum))
			return nil
		}
	}
}

// agentCount returns how many agent initials the roster needs this run.
func agentCount(cfg domain.Config) int {
	if cfg.MaxAgents > 0 {
		return cfg.MaxAgents
	}
	return 1
}

// resolveAgentInitials honors a [agent] names override from config,
// falling back to the first agentCount initials of the canonical roster
// when no override is set. Names that don't match the roster are
// skipped rather than aborting the run.
func resolveAgentInitials(cfg domain.Config) []byte {
	if len(cfg.Agent.Names) == 0 {
		return domain.GetInitials(agentCount(cfg))
	}
	out := make([]byte, 0, len(cfg.Agent.Names))
	for _, name := range cfg.Agent.Names {
		if initial, ok := domain.InitialFromName(name); ok {
			out = append(out, initial)
		}
	}
	if len(out) == 0 {
		return domain.GetInitials(agentCount(cfg))
	}
	return out
}

// runOneSprint carries one sprint through prepare, plan, execute, review,
// and integrate, returning drained=true once the target branch's backlog
// has nothing left to assign.
func runOneSprint(ctx context.Context, deps runnerDeps, sprintNum int) (bool, error) {
	rc, err := domain.NewRunContext(deps.project, sprintNum)
	if err != nil {
		return false, fmt.Errorf("generate run context: %w", err)
	}
	sprintBranch := rc.SprintBranch()
	sprintDir := domain.SprintWorktreeDir(deps.repoRoot, deps.project, sprintBranch)

	if _, err := deps.worktrees.CreateAt(sprintDir, sprintBranch, deps.resolved.Target); err != nil {
		return false, fmt.Errorf("create sprint worktree: %w", err)
	}

	sprintGit, err := git.NewClient(sprintDir)
	if err != nil {
		return false, fmt.Errorf("open sprint worktree: %w", err)
	}
	startCommit, err := sprintGit.CurrentCommit()
	if err != nil {
		return false, fmt.Errorf("read sprint start commit: %w", err)
	}

	tasksPath := domain.TasksFilePath(sprintDir, deps.project)
	raw, err := os.ReadFile(tasksPath)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", errConfiguration, tasksPath, err)
	}
	taskList := domain.ParseTaskList(string(raw))
	taskList.UnassignAll()

	if taskList.AssignableCount() == 0 {
		_ = deps.worktrees.Remove(sprintBranch, true)
		_ = deps.targetGit.DeleteBranch(sprintBranch, true)
		return true, nil
	}

	chat := chatlog.New(sprintDir, deps.project)
	defer chat.Close()

	timeout := engineTimeout(deps.cfg)
	planningEngineName := engine.SelectEngine(deps.engineNames)
	planningEngine, err := engine.Build(planningEngineName, deps.engineOpts)
	if err != nil {
		return false, fmt.Errorf("build planning engine %s: %w", planningEngineName, err)
	}
	planResult := plan.Assign(ctx, planningEngine, &taskList, deps.agentInitials, deps.cfg.TasksPerAgent, timeout, deps.repoRoot, deps.project)
	deps.logger.Info("planner", "assign", fmt.Sprintf("sprint %d: assigned %d task(s), usedLLM=%v, note=%q",
		sprintNum, planResult.AssignedCount, planResult.UsedLLM, planResult.FallbackNote))

	if err := writeSprintState(sprintDir, deps, rc); err != nil {
		return false, fmt.Errorf("write sprint state: %w", err)
	}

	if err := os.WriteFile(tasksPath, []byte(taskList.String()), 0o644); err != nil { //nolint:gosec
		return false, fmt.Errorf("write tasks file: %w", err)
	}
	if _, err := sprintGit.CommitPaths([]string{
		tasksPath,
		domain.SprintHistoryPath(sprintDir),
		domain.TeamStatePath(sprintDir),
		domain.RunManifestPath(sprintDir),
	}, fmt.Sprintf("Sprint %d: assign %d task(s)", sprintNum, planResult.AssignedCount)); err != nil {
		return false, fmt.Errorf("commit sprint assignment: %w", err)
	}

	assignments := buildAssignments(&taskList)
	outcomes := sprint.Run(ctx, sprint.Deps{
		RepoRoot:  deps.repoRoot,
		Project:   deps.project,
		RunCtx:    rc,
		SprintGit: sprintGit,
		AgentGit: func(dir string) (domain.Git, error) {
			return git.NewClient(dir)
		},
		Worktrees:   deps.worktrees,
		Chat:        chat,
		EngineNames: deps.engineNames,
		EngineOpts:  deps.engineOpts,
		Timeout:     timeout,
		MaxAgents:   deps.cfg.MaxAgents,
	}, assignments)

	succeeded, failed, shutDownDuring := applyOutcomes(&taskList, outcomes)
	deps.logger.Info("sprint", "outcomes", fmt.Sprintf("sprint %d: %d succeeded, %d failed", sprintNum, succeeded, failed))

	if err := os.WriteFile(tasksPath, []byte(taskList.String()), 0o644); err != nil { //nolint:gosec
		return false, fmt.Errorf("write tasks file after sprint: %w", err)
	}
	if _, err := sprintGit.CommitPaths([]string{tasksPath},
		fmt.Sprintf("Sprint %d: %d succeeded, %d failed", sprintNum, succeeded, failed)); err != nil {
		return false, fmt.Errorf("commit sprint outcomes: %w", err)
	}

	if shutDownDuring {
		return false, domain.ErrShutdownRequested
	}

	reviewEngineName := engine.SelectEngine(deps.engineNames)
	reviewEngine, err := engine.Build(reviewEngineName, deps.engineOpts)
	if err != nil {
		return false, fmt.Errorf("build review engine %s: %w", reviewEngineName, err)
	}
	reviewResult, err := review.Run(ctx, review.Deps{
		Git:       sprintGit,
		Engine:    reviewEngine,
		Chat:      chat,
		RepoRoot:  deps.repoRoot,
		Project:   deps.project,
		TasksPath: tasksPath,
		ChatPath:  domain.ChatLogPath(sprintDir, deps.project),
		Timeout:   timeout,
	}, startCommit)
	if err != nil {
		return false, fmt.Errorf("sprint review: %w", err)
	}
	deps.logger.Info("review", "result", fmt.Sprintf("sprint %d: skipped=%v followups=%d committed=%v",
		sprintNum, reviewResult.Skipped, reviewResult.FollowupCount, reviewResult.Committed))

	mergeEngineName := engine.SelectEngine(deps.engineNames)
	mergeEngine, err := engine.Build(mergeEngineName, deps.engineOpts)
	if err != nil {
		return false, fmt.Errorf("build merge engine %s: %w", mergeEngineName, err)
	}
	mergeResult, err := merge.Run(ctx, merge.Deps{
		TargetGit: deps.targetGit,
		Engine:    mergeEngine,
		Worktrees: deps.worktrees,
		RepoRoot:  deps.repoRoot,
		Project:   deps.project,
	}, sprintBranch, deps.resolved.Target, deps.pushOnSuccess, timeout)
	if err != nil {
		return false, fmt.Errorf("merge sprint branch: %w", err)
	}
	if !mergeResult.Success {
		return false, fmt.Errorf("%w: %s", domain.ErrMergeVerifyFailed, mergeResult.Diagnostic)
	}
	deps.logger.Info("merge", "result", fmt.Sprintf("sprint %d: merged into %s (retried=%v)",
		sprintNum, deps.resolved.Target, mergeResult.Retried))

	targetTasksPath := domain.TasksFilePath(deps.targetDir, deps.project)
	finalRaw, err := os.ReadFile(targetTasksPath)
	if err != nil {
		return false, fmt.Errorf("read target tasks file after merge: %w", err)
	}
	finalTasks := domain.ParseTaskList(string(finalRaw))
	return finalTasks.AssignableCount() == 0, nil
}

// buildAssignments collects every task the planner just assigned into the
// sprint.Assignment shape sprint.Run expects.
func buildAssignments(taskList *domain.TaskList) []sprint.Assignment {
	var out []sprint.Assignment
	for _, t := range taskList.Tasks {
		if t.Status == domain.Assigned {
			out = append(out, sprint.Assignment{Initial: t.Initial, Task: t})
		}
	}
	return out
}

// applyOutcomes folds each worker outcome back onto the task list by line
// number: completed tasks adopt the worker's final Task value, failed
// ones revert to Unassigned so a later sprint can retry them.
func applyOutcomes(taskList *domain.TaskList, outcomes []sprint.Outcome) (succeeded, failed int, shutDown bool) {
	byLine := make(map[int]int, len(taskList.Tasks))
	for i, t := range taskList.Tasks {
		byLine[t.LineNumber] = i
	}

	for _, o := range outcomes {
		idx, ok := byLine[o.Task.LineNumber]
		if !ok {
			continue
		}
		if o.Success {
			taskList.Tasks[idx] = o.Task
			succeeded++
		} else {
			taskList.Tasks[idx].Unassign()
			failed++
		}
		if o.ShutDown {
			shutDown = true
		}
	}
	return succeeded, failed, shutDown
}

// writeSprintState writes the three per-sprint state records into the
// sprint worktree, ahead of the single commit that includes them
// alongside the task file.
func writeSprintState(sprintDir string, deps runnerDeps, rc domain.RunContext) error {
	history, err := teamstate.ReadSprintHistory(sprintDir)
	if err != nil {
		return err
	}
	history.TotalSprints++
	if err := teamstate.WriteSprintHistory(sprintDir, history); err != nil {
		return err
	}

	if err := teamstate.WriteTeamState(sprintDir, domain.TeamState{FeatureBranch: rc.SprintBranch()}); err != nil {
		return err
	}

	manifest := domain.RunManifest{
		Project:   deps.project,
		RunHash:   rc.Hash,
		Sprint:    rc.Sprint,
		Engine:    joinEngines(deps.engineNames),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return teamstate.WriteRunManifest(sprintDir, manifest)
}

func joinEngines(names []string) string {
	if len(names) == 0 {
		return "claude"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "," + n
	}
	return out
}
