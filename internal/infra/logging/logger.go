// Package logging provides file-based logging for a swarm-hug run.
// It writes one global per-run log file (.swarm-hug/<project>/loop/run.log)
// and a per-agent log file (.swarm-hug/<project>/loop/<agent>.log), both
// opened lazily in append mode under a mutex. Neither file is rotated. This is distinct from the operator-
// facing chat log, which has its own fixed wire format and package.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Logger writes hand-formatted log lines to a global file and per-agent
// files.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile *os.File
	agentFiles map[string]*os.File
	repoRoot   string
	project    string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger writing under the given repo's
// .swarm-hug/<project>/loop directory.
func New(repoRoot, project string, level slog.Level) *Logger {
	return &Logger{
		repoRoot:   repoRoot,
		project:    project,
		level:      level,
		agentFiles: make(map[string]*os.File),
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the loop directory if it doesn't exist.
func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(domain.LoopDir(l.repoRoot, l.project), 0o750)
}

// ensureGlobalFile opens or returns the global run log file.
func (l *Logger) ensureGlobalFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile != nil {
		return l.globalFile, nil
	}

	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create loop directory: %w", err)
	}

	path := domain.RunLogPath(l.repoRoot, l.project)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open run log file: %w", err)
	}
	l.globalFile = f
	return f, nil
}

// ensureAgentFile opens or returns the per-agent log file.
func (l *Logger) ensureAgentFile(agentName string) (*os.File, error) {
	key := strings.ToLower(agentName)

	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.agentFiles[key]; ok {
		return f, nil
	}

	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create loop directory: %w", err)
	}

	path := domain.AgentLogPath(l.repoRoot, l.project, agentName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open agent log file: %w", err)
	}
	l.agentFiles[key] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for name, f := range l.agentFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.agentFiles, name)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [agent-A|global] [category] message
func formatLog(t time.Time, level slog.Level, agentName, category, msg string) string {
	levelStr := levelToString(level)
	scope := "global"
	if agentName != "" {
		scope = "agent-" + agentName
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelStr,
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes a log entry to the global file, and additionally to the
// named agent's file when agentName is non-empty.
func (l *Logger) log(level slog.Level, agentName, category, msg string) {
	if l.repoRoot == "" {
		return // Logging disabled
	}
	if level < l.level {
		return // Skip if below minimum level
	}

	now := time.Now()
	entry := formatLog(now, level, agentName, category, msg)

	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}

	if agentName != "" {
		if af, err := l.ensureAgentFile(agentName); err == nil {
			_, _ = io.WriteString(af, entry)
		}
	}
}

// Info logs an info message. agentName may be "" for global-only entries.
func (l *Logger) Info(agentName, category, msg string) {
	l.log(slog.LevelInfo, agentName, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(agentName, category, msg string) {
	l.log(slog.LevelDebug, agentName, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(agentName, category, msg string) {
	l.log(slog.LevelWarn, agentName, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(agentName, category, msg string) {
	l.log(slog.LevelError, agentName, category, msg)
}

