// Package procreg tracks the PIDs of subprocesses spawned by this run so
// shutdown can kill exactly our own children and nobody else's.
package procreg

import (
	"sync"

	"github.com/seezatnap/swarm-hug/internal/infra/procgroup"
)

// Registry is a thread-safe set of subprocess PIDs owned by one swarm-hug
// run.
type Registry struct {
	mu   sync.Mutex
	pids map[int]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{pids: make(map[int]struct{})}
}

// Register records a spawned subprocess.
func (r *Registry) Register(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[pid] = struct{}{}
}

// Unregister removes a subprocess after it has been waited on and reaped.
// The registry is not cleared by KillAll; individual callers unregister as
// they reap.
func (r *Registry) Unregister(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pids, pid)
}

// AllPIDs returns a snapshot of the currently registered PIDs.
func (r *Registry) AllPIDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.pids))
	for pid := range r.pids {
		out = append(out, pid)
	}
	return out
}

// KillAll kills the process tree rooted at every currently registered PID.
// It takes a snapshot before killing so the mutex is never held across the
// kill calls.
func (r *Registry) KillAll() {
	for _, pid := range r.AllPIDs() {
		procgroup.KillTree(pid)
	}
}

// Global is the process-wide registry shared by the shutdown handler and
// every engine supervisor in this run.
var Global = New()
