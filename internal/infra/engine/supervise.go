// Package engine implements domain.Engine for the three dispatchable
// backends (claude, codex, stub), sharing one process-supervision loop
// across the two real subprocess-backed engines.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/seezatnap/swarm-hug/internal/infra/procgroup"
	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
	"github.com/seezatnap/swarm-hug/internal/infra/shutdown"
)

// heartbeatInterval is how often a long-running agent logs that it is
// still executing, mirroring the original CLI's wait-loop heartbeat.
const heartbeatInterval = 300 * time.Second

// pollInterval bounds how quickly a supervised run notices shutdown or
// timeout. It must stay well under a second so Ctrl-C feels responsive.
const pollInterval = 100 * time.Millisecond

// runSupervised spawns cmd in its own process group, feeds prompt on
// stdin, and blocks until it exits, is killed by a shutdown request or
// ctx cancellation, or exceeds timeout. Every return path unregisters
// the pid and joins the stdout/stderr reader goroutines, so no zombie
// or leaked goroutine survives the call.
func runSupervised(ctx context.Context, cmd *exec.Cmd, prompt string, timeout time.Duration, registry *procreg.Registry, onHeartbeat func(elapsed time.Duration)) (domain.EngineResult, error) {
	return runSupervisedStreaming(ctx, cmd, prompt, timeout, registry, onHeartbeat, nil)
}

// runSupervisedStreaming is runSupervised plus an optional onLine callback
// invoked for every line of stdout as it arrives, used by the codex
// engine to tee its JSONL event stream to a debug file while it is still
// accumulating the buffered result.
func runSupervisedStreaming(ctx context.Context, cmd *exec.Cmd, prompt string, timeout time.Duration, registry *procreg.Registry, onHeartbeat func(elapsed time.Duration), onLine func(line string)) (domain.EngineResult, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return domain.EngineResult{}, fmt.Errorf("engine: stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return domain.EngineResult{}, fmt.Errorf("engine: stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return domain.EngineResult{}, fmt.Errorf("engine: stderr pipe: %w", err)
	}

	if err := procgroup.Spawn(cmd); err != nil {
		return domain.EngineResult{}, fmt.Errorf("engine: spawn %s: %w", cmd.Path, err)
	}
	pid := cmd.Process.Pid
	registry.Register(pid)

	go func() {
		defer stdin.Close()
		_, _ = io.WriteString(stdin, prompt)
	}()

	var stdoutBuf, stderrBuf bytes.Buffer
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		if onLine == nil {
			_, _ = io.Copy(&stdoutBuf, stdoutPipe)
			return
		}
		scanner := bufio.NewScanner(stdoutPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			onLine(line)
			stdoutBuf.WriteString(line)
			stdoutBuf.WriteByte('\n')
		}
	}()
	go func() { defer readers.Done(); _, _ = io.Copy(&stderrBuf, stderrPipe) }()

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	reap := func() (string, string) {
		<-waitDone
		readers.Wait()
		registry.Unregister(pid)
		return stdoutBuf.String(), stderrBuf.String()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	start := time.Now()
	nextHeartbeat := start.Add(heartbeatInterval)

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	for {
		select {
		case err := <-waitDone:
			waitDone <- err // re-deliver for reap's <-waitDone
			stdout, stderr := reap()
			return resultFromWait(err, stdout, stderr), nil

		case <-timeoutCh:
			procgroup.KillTree(pid)
			stdout, stderr := reap()
			minutes := int(time.Since(start) / time.Minute)
			return domain.EngineResult{
				Success:  false,
				ExitCode: 124,
				Stdout:   stdout,
				Stderr:   fmt.Sprintf("%s\nagent timed out after %d minute(s) (pid %d)", stderr, minutes, pid),
			}, nil

		case now := <-ticker.C:
			if shutdown.Requested() || ctx.Err() != nil {
				procgroup.KillTree(pid)
				stdout, stderr := reap()
				return domain.EngineResult{
					Success:  false,
					ExitCode: 130,
					Stdout:   stdout,
					Stderr:   stderr,
				}, domain.ErrShutdownRequested
			}
			if onHeartbeat != nil && !now.Before(nextHeartbeat) {
				onHeartbeat(now.Sub(start))
				nextHeartbeat = now.Add(heartbeatInterval)
			}
		}
	}
}

func resultFromWait(waitErr error, stdout, stderr string) domain.EngineResult {
	if waitErr == nil {
		return domain.EngineResult{Success: true, ExitCode: 0, Stdout: stdout, Stderr: stderr}
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return domain.EngineResult{
			Success:  false,
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout,
			Stderr:   stderr,
		}
	}
	return domain.EngineResult{
		Success:  false,
		ExitCode: -1,
		Stdout:   stdout,
		Stderr:   fmt.Sprintf("%s\n%s", stderr, waitErr.Error()),
	}
}
