// Package sprint drives the sprint execution phase: one
// independent worker per assigned (agent, task) pair, run concurrently up
// to the agent cap, each taking its task through
// ASSIGNED -> WORKING -> DONE -> TERMINATED, with agent-to-sprint merges
// serialised through a single mutex and a background heartbeat emitted
// to the chat log while any worker is WORKING.
package sprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/chatlog"
	"github.com/seezatnap/swarm-hug/internal/infra/engine"
	"github.com/seezatnap/swarm-hug/internal/infra/shutdown"
)

// heartbeatInterval matches the supervisor's own idle heartbeat cadence:
// every ~5 minutes while any worker is in WORKING.
const heartbeatInterval = 5 * time.Minute

// Assignment is one (agent, task) pair the planner produced for this
// sprint.
type Assignment struct {
	Initial byte
	Task    domain.Task
}

// Outcome reports one worker's terminal result.
type Outcome struct {
	Initial    byte
	Task       domain.Task
	Success    bool
	Diagnostic string
	ShutDown   bool // true if this worker stopped because shutdown was requested
}

// Deps are the collaborators shared by every worker this sprint.
type Deps struct {
	RepoRoot    string
	Project     string
	RunCtx      domain.RunContext
	SprintGit   domain.Git // bound to the sprint worktree
	AgentGit    func(workingDir string) (domain.Git, error)
	Worktrees   domain.WorktreeManager
	Chat        *chatlog.Writer
	EngineNames []string
	EngineOpts  engine.BuildOptions
	Timeout     time.Duration
	MaxAgents   int
}

// Run executes every assignment as an independent worker, bounded to
// deps.MaxAgents concurrent workers, and returns one Outcome per
// assignment once all workers have terminated. The order of the returned
// slice matches the order of assignments, not completion order.
func Run(ctx context.Context, deps Deps, assignments []Assignment) []Outcome {
	outcomes := make([]Outcome, len(assignments))
	if len(assignments) == 0 {
		return outcomes
	}

	poolSize := deps.MaxAgents
	if poolSize <= 0 || poolSize > len(assignments) {
		poolSize = len(assignments)
	}
	sem := make(chan struct{}, poolSize)

	tracker := newWorkingTracker()
	stopHeartbeat := startHeartbeat(deps.Chat, tracker)
	defer stopHeartbeat()

	var mergeMu sync.Mutex
	var wg sync.WaitGroup
	for i, a := range assignments {
		wg.Add(1)
		go func(i int, a Assignment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			name, _ := domain.NameFromInitial(a.Initial)
			tracker.start(name)
			defer tracker.stop(name)

			outcomes[i] = runWorker(ctx, deps, &mergeMu, a)
		}(i, a)
	}
	wg.Wait()

	return outcomes
}

// runWorker carries one assignment through its full state machine.
func runWorker(ctx context.Context, deps Deps, mergeMu *sync.Mutex, a Assignment) Outcome {
	name, ok := domain.NameFromInitial(a.Initial)
	if !ok {
		return Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: "unknown agent initial"}
	}
	agentBranch := deps.RunCtx.AgentBranch(a.Initial)
	sprintBranch := deps.RunCtx.SprintBranch()

	_ = deps.Chat.AgentStarting(name, a.Task.Description)

	worktreePath, err := deps.Worktrees.CreateAt(
		domain.AgentWorktreeDir(deps.RepoRoot, deps.Project, agentBranch), agentBranch, sprintBranch)
	if err != nil {
		outcome := Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: fmt.Sprintf("create agent worktree: %v", err)}
		_ = deps.Chat.AgentDone(name, false, outcome.Diagnostic)
		return outcome
	}

	outcome := executeAndMerge(ctx, deps, mergeMu, a, name, agentBranch, sprintBranch, worktreePath)

	_ = deps.Worktrees.Remove(agentBranch, true)
	_ = deps.SprintGit.DeleteBranch(agentBranch, true)

	return outcome
}

func executeAndMerge(ctx context.Context, deps Deps, mergeMu *sync.Mutex, a Assignment, name, agentBranch, sprintBranch, worktreePath string) Outcome {
	engineName := engine.SelectEngine(deps.EngineNames)
	eng, err := engine.Build(engineName, deps.EngineOpts)
	if err != nil {
		outcome := Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: fmt.Sprintf("build engine %s: %v", engineName, err)}
		_ = deps.Chat.AgentDone(name, false, outcome.Diagnostic)
		return outcome
	}

	prompt := buildAgentPrompt(a.Task.Description, name, deps.RepoRoot, deps.Project, worktreePath)
	result, err := eng.Execute(ctx, prompt, worktreePath, deps.Timeout)
	if err != nil {
		shutDown := shutdown.Requested()
		outcome := Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: err.Error(), ShutDown: shutDown}
		_ = deps.Chat.AgentDone(name, false, outcome.Diagnostic)
		return outcome
	}
	if !result.Success {
		outcome := Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: result.Stderr}
		_ = deps.Chat.AgentDone(name, false, outcome.Diagnostic)
		return outcome
	}

	mergeMu.Lock()
	mergeDiag := mergeAgentIntoSprint(deps, agentBranch, sprintBranch, worktreePath)
	mergeMu.Unlock()

	if mergeDiag != "" {
		_ = deps.Chat.MergeConflict(name, mergeDiag)
		outcome := Outcome{Initial: a.Initial, Task: a.Task, Success: false, Diagnostic: mergeDiag}
		_ = deps.Chat.AgentDone(name, false, mergeDiag)
		return outcome
	}

	task := a.Task
	task.Complete(a.Initial)
	outcome := Outcome{Initial: a.Initial, Task: task, Success: true}
	_ = deps.Chat.AgentDone(name, true, task.Description)
	return outcome
}

// mergeAgentIntoSprint performs the plain mechanical merge of agentBranch
// into sprintBranch (no LLM involvement — unlike the sprint-to-target
// merge in the merge package, this integration step is just git). Returns
// a non-empty diagnostic on failure, having left no merge state behind.
func mergeAgentIntoSprint(deps Deps, agentBranch, sprintBranch, agentWorktreePath string) string {
	fullyContained, err := deps.SprintGit.IsAncestor(agentBranch, sprintBranch)
	if err != nil {
		return fmt.Sprintf("check agent commits: %v", err)
	}
	if fullyContained {
		return "agent branch has no commits beyond the sprint branch"
	}

	if err := deps.SprintGit.CheckoutBranch(sprintBranch); err != nil {
		return fmt.Sprintf("checkout sprint branch: %v", err)
	}

	branchExists, err := deps.SprintGit.BranchExists(agentBranch)
	if err != nil {
		return fmt.Sprintf("check agent branch: %v", err)
	}
	if !branchExists {
		if diag := recreateAgentBranch(deps, agentBranch, agentWorktreePath); diag != "" {
			return diag
		}
	}

	if err := deps.SprintGit.Merge(agentBranch, true); err != nil {
		if !branchExists {
			// Already attempted recovery once above; a further failure is terminal.
			_ = abortStrayMerge(deps.SprintGit)
			return fmt.Sprintf("merge agent branch: %v", err)
		}
		// The branch existed but the merge still failed (conflict, or the
		// agent left its worktree on an unexpected ref) — try the same
		// drift recovery once before giving up.
		if diag := recreateAgentBranch(deps, agentBranch, agentWorktreePath); diag != "" {
			_ = abortStrayMerge(deps.SprintGit)
			return diag
		}
		if retryErr := deps.SprintGit.Merge(agentBranch, true); retryErr != nil {
			_ = abortStrayMerge(deps.SprintGit)
			return fmt.Sprintf("merge agent branch after recreate: %v", retryErr)
		}
	}
	return ""
}

// recreateAgentBranch force-creates agentBranch at the agent worktree's
// current HEAD, recovering from a drifted or missing branch (e.g. the
// agent left its worktree detached).
func recreateAgentBranch(deps Deps, agentBranch, agentWorktreePath string) string {
	agentGit, err := deps.AgentGit(agentWorktreePath)
	if err != nil {
		return fmt.Sprintf("open agent worktree git: %v", err)
	}
	commit, err := agentGit.CurrentCommit()
	if err != nil {
		return fmt.Sprintf("read agent worktree HEAD: %v", err)
	}
	if err := deps.SprintGit.CreateBranchAt(agentBranch, commit); err != nil {
		return fmt.Sprintf("recreate agent branch at %s: %v", commit, err)
	}
	return ""
}

func abortStrayMerge(g domain.Git) error {
	hasMergeHead, err := g.HasMergeHead()
	if err != nil || !hasMergeHead {
		return nil
	}
	return g.AbortMerge()
}

func buildAgentPrompt(taskDescription, agentName, repoRoot, project, worktreePath string) string {
	teamDir := domain.SwarmHugDir(worktreePath, project)
	vars, ok := domain.BuildAgentPromptVars(agentName, taskDescription, repoRoot, teamDir)
	if !ok {
		vars = map[string]string{"task_description": taskDescription}
	}
	tmpl := domain.LoadPromptTemplate(repoRoot, project, "agent", defaultAgentTaskTemplate)
	return domain.RenderTemplate(tmpl, vars)
}
