package sprint

import (
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/infra/chatlog"
)

// workingTracker tracks which agent names are currently in the WORKING
// state, so the background heartbeat can report who it is still waiting
// on.
type workingTracker struct {
	mu      sync.Mutex
	working map[string]struct{}
}

func newWorkingTracker() *workingTracker {
	return &workingTracker{working: make(map[string]struct{})}
}

func (t *workingTracker) start(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.working[name] = struct{}{}
}

func (t *workingTracker) stop(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.working, name)
}

func (t *workingTracker) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.working))
	for name := range t.working {
		out = append(out, name)
	}
	return out
}

// startHeartbeat launches a background goroutine that logs a chat heartbeat
// every heartbeatInterval as long as at least one agent is WORKING, and
// returns a function that stops it. Safe to call stop more than once.
func startHeartbeat(chat *chatlog.Writer, tracker *workingTracker) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if names := tracker.names(); len(names) > 0 {
					_ = chat.Heartbeat(names)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
