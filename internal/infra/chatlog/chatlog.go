// Package chatlog implements the operator-facing append-only log at
// .swarm-hug/<project>/chat.md, distinct from the structured
// per-run/per-agent logs in internal/infra/logging. Writes are a single
// fixed wire format and are serialized through one mutex so the
// "single writer, monotonic timestamps per writer" ordering guarantee
// holds even when many sprint workers log concurrently.
package chatlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Writer appends lines to one project's chat log.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	repoRoot string
	project  string
	last     time.Time
}

// New returns a Writer for the given project's chat log. The file is
// opened lazily on first write.
func New(repoRoot, project string) *Writer {
	return &Writer{repoRoot: repoRoot, project: project}
}

func (w *Writer) ensureFile() (*os.File, error) {
	if w.file != nil {
		return w.file, nil
	}
	dir := domain.SwarmHugDir(w.repoRoot, w.project)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("chatlog: create project dir: %w", err)
	}
	path := domain.ChatLogPath(w.repoRoot, w.project)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("chatlog: open %s: %w", path, err)
	}
	w.file = f
	return f, nil
}

// monotonicNow returns the current time, nudged forward by a nanosecond
// if needed to stay strictly after the previous write's timestamp. The
// wire format only has second resolution, so two fast writes could
// otherwise render identical timestamps; this keeps the in-memory
// ordering guarantee true even though the rendered text can't show it.
func (w *Writer) monotonicNow() time.Time {
	now := time.Now()
	if !now.After(w.last) {
		now = w.last.Add(time.Nanosecond)
	}
	w.last = now
	return now
}

// Append writes one "TIMESTAMP | AGENT | CATEGORY: message" line.
// agent may be "" for a runner-level entry not attributed to any agent.
func (w *Writer) Append(agent, category, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.ensureFile()
	if err != nil {
		return err
	}

	who := agent
	if who == "" {
		who = "runner"
	}
	line := fmt.Sprintf("%s | %s | %s: %s\n",
		w.monotonicNow().Format("2006-01-02 15:04:05"), who, category, message)
	_, err = io.WriteString(f, line)
	return err
}

// AgentStarting logs an agent beginning work on a task.
func (w *Writer) AgentStarting(agent, taskDescription string) error {
	return w.Append(agent, "starting", taskDescription)
}

// AgentDone logs an agent's terminal outcome for its task.
func (w *Writer) AgentDone(agent string, success bool, detail string) error {
	status := "succeeded"
	if !success {
		status = "failed"
	}
	return w.Append(agent, "done", fmt.Sprintf("%s: %s", status, detail))
}

// MergeConflict logs a merge conflict that was recorded rather than
// aborting the sprint.
func (w *Writer) MergeConflict(agent, detail string) error {
	return w.Append(agent, "merge-conflict", detail)
}

// Heartbeat logs the periodic "still working" entry emitted by the
// sprint runner's background heartbeat goroutine while any worker is in
// the WORKING state.
func (w *Writer) Heartbeat(workingAgents []string) error {
	return w.Append("", "heartbeat", fmt.Sprintf("%d agent(s) still working: %v", len(workingAgents), workingAgents))
}

// Close closes the underlying file, if open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
