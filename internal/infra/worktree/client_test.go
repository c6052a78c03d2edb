package worktree

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary git repository for testing.
func setupTestRepo(t *testing.T) (repoRoot string) {
	t.Helper()

	repoRoot = t.TempDir()

	cmd := exec.Command("git", "init")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	cmd = exec.Command("git", "config", "user.email", "test@example.com")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	cmd = exec.Command("git", "config", "user.name", "Test User")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	testFile := filepath.Join(repoRoot, "README.md")
	require.NoError(t, os.WriteFile(testFile, []byte("# Test"), 0o644))

	cmd = exec.Command("git", "add", ".")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	cmd = exec.Command("git", "commit", "-m", "Initial commit")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	return repoRoot
}

func TestClient_CreateAt_NewBranch(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	path, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")

	require.NoError(t, err)
	assert.Equal(t, wtPath, path)

	exists, err := client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestClient_CreateAt_ExistingBranch(t *testing.T) {
	repoRoot := setupTestRepo(t)

	cmd := exec.Command("git", "branch", "proj-agent-aaron-ab12cd")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "agent-a")
	path, err := client.CreateAt(wtPath, "proj-agent-aaron-ab12cd", "main")

	require.NoError(t, err)
	assert.Equal(t, wtPath, path)
}

func TestClient_CreateAt_AlreadyExists(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	path1, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	path2, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
}

func TestClient_Resolve(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	expectedPath, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	path, err := client.Resolve("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.Equal(t, expectedPath, path)
}

func TestClient_Resolve_NotFound(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	_, err := client.Resolve("non-existent")

	assert.ErrorIs(t, err, domain.ErrWorktreeNotFound)
}

func TestClient_Remove(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	path, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	exists, err := client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)

	err = client.Remove("proj-sprint-1-ab12cd", false)
	require.NoError(t, err)

	exists, err = client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestClient_Remove_WithUncommittedChanges(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	path, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	testFile := filepath.Join(path, "dirty.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("uncommitted"), 0o644))

	err = client.Remove("proj-sprint-1-ab12cd", false)
	assert.ErrorIs(t, err, domain.ErrUncommittedChanges)

	exists, err := client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)

	// Force removal is how the merge protocol cleans up a failed agent
	// worktree: unmerged work is itself the failure signal.
	err = client.Remove("proj-sprint-1-ab12cd", true)
	require.NoError(t, err)
}

func TestClient_Remove_NotFound(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	err := client.Remove("non-existent", false)

	assert.ErrorIs(t, err, domain.ErrWorktreeNotFound)
}

func TestClient_List(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	_, err := client.CreateAt(filepath.Join(t.TempDir(), "wt1"), "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)
	_, err = client.CreateAt(filepath.Join(t.TempDir(), "wt2"), "proj-sprint-2-cd34ef", "main")
	require.NoError(t, err)

	worktrees, err := client.List()
	require.NoError(t, err)

	assert.Len(t, worktrees, 3) // main repo + 2 worktrees

	branches := make(map[string]bool)
	for _, wt := range worktrees {
		branches[wt.Branch] = true
	}
	assert.True(t, branches["proj-sprint-1-ab12cd"])
	assert.True(t, branches["proj-sprint-2-cd34ef"])
}

func TestClient_Exists(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	exists, err := client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = client.CreateAt(filepath.Join(t.TempDir(), "wt1"), "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	exists, err = client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestParseWorktreeList(t *testing.T) {
	input := `worktree /path/to/main
HEAD abc123def456
branch refs/heads/main

worktree /path/to/feature
HEAD def456abc123
branch refs/heads/feature-branch

`

	worktrees, err := parseWorktreeList(input)

	require.NoError(t, err)
	require.Len(t, worktrees, 2)

	assert.Equal(t, "/path/to/main", worktrees[0].Path)
	assert.Equal(t, "main", worktrees[0].Branch)

	assert.Equal(t, "/path/to/feature", worktrees[1].Path)
	assert.Equal(t, "feature-branch", worktrees[1].Branch)
}

func TestParseWorktreeList_Empty(t *testing.T) {
	worktrees, err := parseWorktreeList("")

	require.NoError(t, err)
	assert.Empty(t, worktrees)
}

func TestParseWorktreeList_DetachedHead(t *testing.T) {
	input := `worktree /path/to/detached
HEAD abc123def456
detached

`

	worktrees, err := parseWorktreeList(input)

	require.NoError(t, err)
	require.Len(t, worktrees, 1)
	assert.Equal(t, "/path/to/detached", worktrees[0].Path)
	assert.Equal(t, "", worktrees[0].Branch)
}

func TestClient_CreateAt_OrphanedWorktree(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	wtPath := filepath.Join(t.TempDir(), "proj-sprint-1-ab12cd")
	path, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err)

	exists, err := client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)

	// Simulate orphaned worktree: remove the directory but leave git's
	// registration intact.
	require.NoError(t, os.RemoveAll(path))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	path2, err := client.CreateAt(wtPath, "proj-sprint-1-ab12cd", "main")
	require.NoError(t, err, "CreateAt should auto-recover from orphaned worktree")
	assert.Equal(t, wtPath, path2)

	exists, err = client.Exists("proj-sprint-1-ab12cd")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_ResolveSharedTarget_CreatesUnderSharedRoot(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	cmd := exec.Command("git", "branch", "release")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	sharedRoot := filepath.Join(t.TempDir(), "shared")
	path, err := client.ResolveSharedTarget(sharedRoot, "release")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sharedRoot, "release"), path)

	exists, err := client.Exists("release")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_ResolveSharedTarget_ReusesExisting(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	cmd := exec.Command("git", "branch", "release")
	cmd.Dir = repoRoot
	require.NoError(t, cmd.Run())

	sharedRoot := filepath.Join(t.TempDir(), "shared")
	path1, err := client.ResolveSharedTarget(sharedRoot, "release")
	require.NoError(t, err)

	path2, err := client.ResolveSharedTarget(sharedRoot, "release")
	require.NoError(t, err)

	assert.Equal(t, path1, path2)
}

func TestClient_ResolveSharedTarget_RejectsOutsideSharedRoot(t *testing.T) {
	repoRoot := setupTestRepo(t)
	client := NewClient(repoRoot)

	// Register a worktree for "other" outside any shared root.
	_, err := client.CreateAt(filepath.Join(t.TempDir(), "elsewhere"), "other", "main")
	require.NoError(t, err)

	sharedRoot := filepath.Join(t.TempDir(), "shared")
	_, err = client.ResolveSharedTarget(sharedRoot, "other")
	assert.ErrorIs(t, err, domain.ErrWorktreeOccupied)
}

func TestSanitizeBranchForPath(t *testing.T) {
	assert.Equal(t, "feature-x", domain.SanitizeBranchForPath("feature/x"))
	assert.Equal(t, "a-b-c", domain.SanitizeBranchForPath("a b:c"))
}
