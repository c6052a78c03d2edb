package sprint

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/chatlog"
	"github.com/seezatnap/swarm-hug/internal/infra/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit is a domain.Git test double. Sprint worker logic is exercised
// against it directly rather than a real repository because the scenarios
// under test (drift recovery, "no new commits" rejection) are about
// sprint.go's decision sequence, not git's own plumbing, which is already
// covered in the git package's own tests.
type fakeGit struct {
	mu sync.Mutex

	fullyContained   bool // IsAncestor(agentBranch, sprintBranch) return value
	branchExists     bool
	mergeErr         error
	mergeErrOnce     bool // if true, mergeErr only applies to the first Merge call
	mergeCalls       int
	checkedOut       string
	createBranchArgs []string
	hasMergeHead     bool
	abortCalled      bool
	deletedBranches  []string
}

func (g *fakeGit) CurrentBranch() (string, error)                 { return g.checkedOut, nil }
func (g *fakeGit) BranchExists(branch string) (bool, error)       { return g.branchExists, nil }
func (g *fakeGit) HasUncommittedChanges(dir string) (bool, error) { return false, nil }

func (g *fakeGit) Merge(branch string, noFF bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mergeCalls++
	if g.mergeErr != nil {
		if g.mergeErrOnce && g.mergeCalls > 1 {
			return nil
		}
		return g.mergeErr
	}
	return nil
}

func (g *fakeGit) DeleteBranch(branch string, force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedBranches = append(g.deletedBranches, branch)
	return nil
}

func (g *fakeGit) CheckoutBranch(branch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkedOut = branch
	return nil
}

func (g *fakeGit) FastForwardPull() error                { return nil }
func (g *fakeGit) Push(branch string, force bool) error   { return nil }
func (g *fakeGit) HasMergeHead() (bool, error)            { return g.hasMergeHead, nil }
func (g *fakeGit) AbortMerge() error                      { g.abortCalled = true; g.hasMergeHead = false; return nil }
func (g *fakeGit) CurrentCommit() (string, error)         { return "agentcommit123", nil }

func (g *fakeGit) CreateBranchAt(branch, commit string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createBranchArgs = append(g.createBranchArgs, branch+"@"+commit)
	g.branchExists = true
	return nil
}

func (g *fakeGit) IsAncestor(a, b string) (bool, error) { return g.fullyContained, nil }
func (g *fakeGit) ParentCount(commit string) (int, error) { return 2, nil }
func (g *fakeGit) Log(from, to string) (string, error)    { return "", nil }
func (g *fakeGit) CommitPaths(paths []string, message string) (bool, error) { return true, nil }

// fakeWorktrees is a minimal domain.WorktreeManager double.
type fakeWorktrees struct {
	mu       sync.Mutex
	created  []string
	removed  []string
}

func (w *fakeWorktrees) Create(branch, baseBranch string) (string, error) { return "", nil }
func (w *fakeWorktrees) CreateAt(path, branch, baseBranch string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.created = append(w.created, branch)
	return path, nil
}
func (w *fakeWorktrees) Resolve(branch string) (string, error) { return "/worktrees/" + branch, nil }
func (w *fakeWorktrees) Remove(branch string, force bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed = append(w.removed, branch)
	return nil
}
func (w *fakeWorktrees) Exists(branch string) (bool, error)   { return true, nil }
func (w *fakeWorktrees) List() ([]domain.WorktreeInfo, error) { return nil, nil }
func (w *fakeWorktrees) ResolveSharedTarget(sharedRoot, targetBranch string) (string, error) {
	return sharedRoot, nil
}

func testDeps(t *testing.T, g domain.Git, w domain.WorktreeManager) Deps {
	return Deps{
		RepoRoot:  t.TempDir(),
		Project:   "proj",
		RunCtx:    domain.RunContext{Project: "proj", Sprint: 1, Hash: "ab12cd"},
		SprintGit: g,
		AgentGit:  func(workingDir string) (domain.Git, error) { return g, nil },
		Worktrees: w,
		Chat:      chatlog.New(t.TempDir(), "proj"),
		EngineNames: []string{"stub"},
		EngineOpts: engine.BuildOptions{StubOutputDir: t.TempDir()},
		Timeout:   0,
		MaxAgents: 2,
	}
}

func TestRun_SingleAssignmentSucceeds(t *testing.T) {
	g := &fakeGit{branchExists: true}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)

	assignments := []Assignment{{Initial: 'A', Task: domain.NewTask("do the thing")}}
	outcomes := Run(context.Background(), deps, assignments)

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, domain.Completed, outcomes[0].Task.Status)
	assert.Equal(t, byte('A'), outcomes[0].Task.Initial)
	assert.Equal(t, 1, g.mergeCalls)
	assert.Contains(t, w.removed, deps.RunCtx.AgentBranch('A'))
	assert.Contains(t, g.deletedBranches, deps.RunCtx.AgentBranch('A'))
}

func TestRun_NoAssignmentsReturnsEmpty(t *testing.T) {
	g := &fakeGit{}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)

	outcomes := Run(context.Background(), deps, nil)
	assert.Empty(t, outcomes)
}

func TestRun_UnknownEngineFailsWorker(t *testing.T) {
	g := &fakeGit{branchExists: true}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)
	deps.EngineNames = []string{"not-a-real-engine"}

	outcomes := Run(context.Background(), deps, []Assignment{{Initial: 'A', Task: domain.NewTask("x")}})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Diagnostic, "build engine")
	assert.Equal(t, domain.Unassigned, outcomes[0].Task.Status)
}

func TestRun_NoNewCommitsFailsWithoutMerging(t *testing.T) {
	g := &fakeGit{branchExists: true, fullyContained: true}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)

	outcomes := Run(context.Background(), deps, []Assignment{{Initial: 'B', Task: domain.NewTask("x")}})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Diagnostic, "no commits")
	assert.Equal(t, 0, g.mergeCalls)
}

func TestRun_MissingAgentBranchRecoversAndMerges(t *testing.T) {
	g := &fakeGit{branchExists: false}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)

	outcomes := Run(context.Background(), deps, []Assignment{{Initial: 'C', Task: domain.NewTask("x")}})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	require.Len(t, g.createBranchArgs, 1)
	assert.Contains(t, g.createBranchArgs[0], "agentcommit123")
	assert.Equal(t, 1, g.mergeCalls)
}

func TestRun_MergeConflictFailsTaskWithoutAbortingSprint(t *testing.T) {
	g := &fakeGit{branchExists: true, mergeErr: newTestErr("conflict in file.go")}
	w := &fakeWorktrees{}
	deps := testDeps(t, g, w)

	outcomes := Run(context.Background(), deps, []Assignment{{Initial: 'D', Task: domain.NewTask("x")}})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Diagnostic, "conflict")
	// Task status is left Unassigned (never completed), matching the
	// reset-on-next-sprint recovery path rather than a distinct failure
	// status.
	assert.Equal(t, domain.Unassigned, outcomes[0].Task.Status)
}

func TestRun_BoundsConcurrencyToMaxAgents(t *testing.T) {
	g := &fakeGit{branchExists: true}
	w := &boundedFakeWorktrees{fakeWorktrees: fakeWorktrees{}}
	deps := testDeps(t, g, w)
	deps.MaxAgents = 1

	assignments := []Assignment{
		{Initial: 'A', Task: domain.NewTask("1")},
		{Initial: 'B', Task: domain.NewTask("2")},
		{Initial: 'C', Task: domain.NewTask("3")},
	}
	outcomes := Run(context.Background(), deps, assignments)

	require.Len(t, outcomes, 3)
	assert.LessOrEqual(t, atomic.LoadInt32(&w.maxActive), int32(1))
}

// boundedFakeWorktrees wraps fakeWorktrees to record concurrent
// CreateAt occupancy, used to verify the worker pool actually bounds
// concurrency rather than just accepting a MaxAgents field it never
// enforces. CreateAt is the right observation point: it runs before the
// merge mutex, which would otherwise serialise everything downstream of
// it regardless of pool size.
type boundedFakeWorktrees struct {
	fakeWorktrees
	active    int32
	maxActive int32
}

func (w *boundedFakeWorktrees) CreateAt(path, branch, baseBranch string) (string, error) {
	n := atomic.AddInt32(&w.active, 1)
	for {
		max := atomic.LoadInt32(&w.maxActive)
		if n <= max || atomic.CompareAndSwapInt32(&w.maxActive, max, n) {
			break
		}
	}
	time.Sleep(15 * time.Millisecond)
	atomic.AddInt32(&w.active, -1)
	return w.fakeWorktrees.CreateAt(path, branch, baseBranch)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func newTestErr(msg string) error { return simpleErr(msg) }
