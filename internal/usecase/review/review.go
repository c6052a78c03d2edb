// Package review implements post-sprint review: after all
// sprint workers terminate, a review engine is shown the sprint's commit
// log and current task file, and any follow-up tasks it proposes are
// appended to the task file and committed, in the sprint worktree only.
package review

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// noFollowupsSentinel is the literal response that means the review
// engine found nothing worth following up on.
const noFollowupsSentinel = "NO_FOLLOWUPS_NEEDED"

// followupHeading introduces newly appended follow-up tasks in the task
// file. Re-review runs that already see this heading do not repeat it.
const followupHeading = "## Follow-up tasks (from sprint review)"

// Deps are the collaborators one review pass needs, all already scoped
// to the sprint worktree in progress.
type Deps struct {
	Git       domain.Git // bound to the sprint worktree
	Engine    domain.Engine
	Chat      chatAppender
	RepoRoot  string
	Project   string
	TasksPath string // path to tasks.md inside the sprint worktree
	ChatPath  string // path to chat.md inside the sprint worktree
	Timeout   time.Duration
}

// chatAppender is the narrow slice of *chatlog.Writer review needs,
// named here instead of imported directly to keep this package's test
// seam a plain interface.
type chatAppender interface {
	Append(agent, category, message string) error
}

// Result reports what one review pass produced.
type Result struct {
	Skipped       bool // true if there were no commits this sprint to review
	FollowupCount int
	Committed     bool
}

// Run reads the commit log between sprintStartCommit and HEAD in the
// sprint worktree, asks the review engine for follow-up tasks, appends
// any it finds to the task file, and commits the task file plus the chat
// log in a single commit.
func Run(ctx context.Context, deps Deps, sprintStartCommit string) (Result, error) {
	gitLog, err := deps.Git.Log(sprintStartCommit, "HEAD")
	if err != nil {
		return Result{}, fmt.Errorf("review: git log: %w", err)
	}
	if strings.TrimSpace(gitLog) == "" {
		return Result{Skipped: true}, nil
	}

	tasksContent, err := os.ReadFile(deps.TasksPath)
	if err != nil {
		return Result{}, fmt.Errorf("review: read tasks file: %w", err)
	}
	taskList := domain.ParseTaskList(string(tasksContent))

	_ = deps.Chat.Append("ScrumMaster", "review", "Post-mortem started")

	followUps, err := requestFollowups(ctx, deps, taskList.String(), gitLog)
	if err != nil {
		return Result{}, fmt.Errorf("review: %w", err)
	}
	if len(followUps) == 0 {
		return Result{}, nil
	}

	formatted := formatFollowupTasks(taskList.MaxTaskNumber()+1, followUps)
	if err := appendFollowups(deps.TasksPath, string(tasksContent), formatted); err != nil {
		return Result{}, fmt.Errorf("review: append follow-ups: %w", err)
	}

	_ = deps.Chat.Append("ScrumMaster", "review",
		fmt.Sprintf("sprint review added %d follow-up task(s)", len(formatted)))

	committed, err := deps.Git.CommitPaths([]string{deps.TasksPath, deps.ChatPath}, "Sprint review: follow-up tasks")
	if err != nil {
		return Result{}, fmt.Errorf("review: commit follow-ups: %w", err)
	}

	return Result{FollowupCount: len(formatted), Committed: committed}, nil
}

// requestFollowups asks the review engine for follow-up task lines. The
// stub engine cannot meaningfully review anything, so it deterministically
// reports none without calling Execute.
func requestFollowups(ctx context.Context, deps Deps, tasksContent, gitLog string) ([]string, error) {
	if deps.Engine == nil || deps.Engine.Type().Kind == domain.EngineKindStub {
		return nil, nil
	}

	prompt := buildReviewPrompt(deps.RepoRoot, deps.Project, tasksContent, gitLog)
	result, err := deps.Engine.Execute(ctx, prompt, domain.LoopDir(deps.RepoRoot, deps.Project), deps.Timeout)
	if err != nil {
		return nil, fmt.Errorf("review engine: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("review engine failed: %s", strings.TrimSpace(result.Stderr))
	}
	return parseFollowups(result.Stdout), nil
}

func buildReviewPrompt(repoRoot, project, tasksContent, gitLog string) string {
	vars := map[string]string{
		"tasks_content": tasksContent,
		"git_log":       gitLog,
	}
	tmpl := domain.LoadPromptTemplate(repoRoot, project, "review", defaultReviewTemplate)
	return domain.RenderTemplate(tmpl, vars)
}

// parseFollowups extracts "- [ ] <description>" lines from a review
// response, or none at all if the response carries the no-followups
// sentinel anywhere in its text.
func parseFollowups(response string) []string {
	if strings.Contains(response, noFollowupsSentinel) {
		return nil
	}
	var out []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- [ ]") {
			out = append(out, trimmed)
		}
	}
	return out
}

// formatFollowupTasks renumbers raw "- [ ] <description>" lines as
// "- [ ] (#N) <description>", assigning task numbers sequentially
// starting at startNumber.
func formatFollowupTasks(startNumber int, rawLines []string) []string {
	out := make([]string, 0, len(rawLines))
	n := startNumber
	for _, raw := range rawLines {
		desc := strings.TrimSpace(strings.TrimPrefix(raw, "- [ ]"))
		if desc == "" {
			continue
		}
		out = append(out, "- [ ] (#"+strconv.Itoa(n)+") "+desc)
		n++
	}
	return out
}

// appendFollowups writes the task file with formatted lines appended
// under followupHeading, adding the heading only if it is not already
// present from an earlier review pass this sprint.
func appendFollowups(path, currentContent string, formatted []string) error {
	content := currentContent
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if !strings.Contains(content, followupHeading) {
		content += "\n" + followupHeading + "\n"
	}
	for _, line := range formatted {
		content += line + "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644) //nolint:gosec
}
