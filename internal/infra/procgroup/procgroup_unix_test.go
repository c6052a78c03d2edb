//go:build unix

package procgroup

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn_CreatesNewProcessGroup(t *testing.T) {
	cmd := exec.Command("sleep", "10")
	require.NoError(t, Spawn(cmd))
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	pid := cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)
}

func TestKillTree_TerminatesProcessGroup(t *testing.T) {
	cmd := exec.Command("sleep", "10")
	require.NoError(t, Spawn(cmd))
	pid := cmd.Process.Pid

	KillTree(pid)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process still running after KillTree")
	}
}
