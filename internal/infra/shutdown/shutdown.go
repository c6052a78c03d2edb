// Package shutdown handles graceful interruption of a sprint run: it wires
// SIGINT/SIGTERM to a process-wide flag that every long-running loop in the
// runner, engine supervisor, and merge protocol polls at least every
// 100ms, and asks the process registry to kill this run's own children on
// the first interrupt.
package shutdown

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/seezatnap/swarm-hug/internal/infra/procreg"
)

// requested is the process-wide shutdown flag.
var requested atomic.Bool

// interruptCount tracks how many interrupts have been received, to force a
// hard exit if the operator loses patience with the graceful path.
var interruptCount atomic.Int32

// maxInterrupts is the number of interrupts after which the process force
// exits rather than waiting for the graceful path.
const maxInterrupts = 3

// Requested reports whether shutdown has been requested, either by a signal
// or by Request.
func Requested() bool {
	return requested.Load()
}

// Request programmatically requests shutdown, e.g. from a test.
func Request() {
	requested.Store(true)
}

// Reset clears the shutdown flag and interrupt counter. Intended for tests.
func Reset() {
	requested.Store(false)
	interruptCount.Store(0)
}

// InterruptCount returns the number of interrupts received so far.
func InterruptCount() int {
	return int(interruptCount.Load())
}

// RegisterHandler installs the SIGINT/SIGTERM handler against registry,
// killing this run's subprocesses on the first interrupt and force-exiting
// with code 130 on the third. Returns a stop function that deregisters the
// handler; callers should defer it.
func RegisterHandler(registry *procreg.Registry) (stop func(), err error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				count := int(interruptCount.Add(1))
				if count >= maxInterrupts {
					fmt.Fprintf(os.Stderr, "\nForce quit (received %d interrupts)\n", count)
					os.Exit(130)
				}
				if count == 1 {
					fmt.Fprintln(os.Stderr, "\nInterrupt received. Gracefully ending sprint...")
					fmt.Fprintf(os.Stderr, "(Press Ctrl+C %d more time(s) to force quit)\n", maxInterrupts-count)
					requested.Store(true)
					registry.KillAll()
				} else {
					fmt.Fprintf(os.Stderr, "(Press Ctrl+C %d more time(s) to force quit)\n", maxInterrupts-count)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}, nil
}

// Signal is a cloneable handle to check shutdown status, combining the
// global flag with an optional local trigger. Useful for passing a
// cancellation check to a goroutine without exposing the package-level
// state directly.
type Signal struct {
	local *atomic.Bool
}

// NewSignal returns a Signal with its own independent local trigger.
func NewSignal() Signal {
	return Signal{local: &atomic.Bool{}}
}

// IsShutdown reports whether shutdown has been requested globally or
// triggered locally on this signal.
func (s Signal) IsShutdown() bool {
	return Requested() || (s.local != nil && s.local.Load())
}

// Trigger requests shutdown on this signal without affecting the global
// flag.
func (s Signal) Trigger() {
	if s.local != nil {
		s.local.Store(true)
	}
}
