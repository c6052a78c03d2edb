package logging

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/seezatnap/swarm-hug/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLogger_Info(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("A", "agent", "test message")

	content, err := os.ReadFile(domain.RunLogPath(repoRoot, "proj"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[INFO]")
	assert.Contains(t, string(content), "[agent-A]")
	assert.Contains(t, string(content), "[agent]")
	assert.Contains(t, string(content), "test message")

	agentContent, err := os.ReadFile(domain.AgentLogPath(repoRoot, "proj", "A"))
	require.NoError(t, err)
	assert.Contains(t, string(agentContent), "test message")
}

func TestLogger_GlobalLogOnly(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("", "system", "global message")

	content, err := os.ReadFile(domain.RunLogPath(repoRoot, "proj"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[global]")
	assert.Contains(t, string(content), "global message")

	_, err = os.Stat(domain.AgentLogPath(repoRoot, "proj", ""))
	assert.True(t, os.IsNotExist(err))
}

func TestLogger_LevelFiltering(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelWarn)
	defer func() { _ = logger.Close() }()

	logger.Debug("A", "agent", "debug message")
	logger.Info("A", "agent", "info message")
	logger.Warn("A", "agent", "warn message")
	logger.Error("A", "agent", "error message")

	content, err := os.ReadFile(domain.RunLogPath(repoRoot, "proj"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "debug message")
	assert.NotContains(t, string(content), "info message")
	assert.Contains(t, string(content), "warn message")
	assert.Contains(t, string(content), "error message")
}

func TestLogger_DisabledWhenEmptyRepoRoot(t *testing.T) {
	logger := New("", "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("A", "agent", "test message")
	logger.Debug("A", "agent", "debug message")
	logger.Warn("A", "agent", "warn message")
	logger.Error("A", "agent", "error message")
}

func TestLogger_LogFormat(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("B", "usecase", `task created: "my task"`)

	content, err := os.ReadFile(domain.RunLogPath(repoRoot, "proj"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "[agent-B]")
	assert.Contains(t, line, "[usecase]")
	assert.Contains(t, line, `task created: "my task"`)
}

func TestLogger_MultipleAgentFiles(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("A", "agent", "message for A")
	logger.Info("B", "agent", "message for B")
	logger.Info("A", "agent", "another message for A")

	globalContent, err := os.ReadFile(domain.RunLogPath(repoRoot, "proj"))
	require.NoError(t, err)
	assert.Contains(t, string(globalContent), "message for A")
	assert.Contains(t, string(globalContent), "message for B")

	aContent, err := os.ReadFile(domain.AgentLogPath(repoRoot, "proj", "A"))
	require.NoError(t, err)
	assert.Contains(t, string(aContent), "message for A")
	assert.Contains(t, string(aContent), "another message for A")
	assert.NotContains(t, string(aContent), "message for B")

	bContent, err := os.ReadFile(domain.AgentLogPath(repoRoot, "proj", "B"))
	require.NoError(t, err)
	assert.Contains(t, string(bContent), "message for B")
	assert.NotContains(t, string(bContent), "message for A")
}

func TestLogger_Close(t *testing.T) {
	repoRoot := t.TempDir()
	logger := New(repoRoot, "proj", slog.LevelInfo)

	logger.Info("A", "agent", "test message")

	err := logger.Close()
	assert.NoError(t, err)

	assert.FileExists(t, domain.RunLogPath(repoRoot, "proj"))
	assert.FileExists(t, domain.AgentLogPath(repoRoot, "proj", "A"))
}

func TestLogger_CreateLogsDir(t *testing.T) {
	repoRoot := t.TempDir()
	loopDir := domain.LoopDir(repoRoot, "proj")

	_, err := os.Stat(loopDir)
	assert.True(t, os.IsNotExist(err))

	logger := New(repoRoot, "proj", slog.LevelInfo)
	defer func() { _ = logger.Close() }()
	logger.Info("A", "agent", "test message")

	stat, err := os.Stat(loopDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}
