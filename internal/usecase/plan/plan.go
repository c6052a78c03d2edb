// Package plan implements task assignment: an optional
// LLM-assisted pass that asks a planning engine to distribute tasks
// across agents, with a deterministic round-robin fallback used whenever
// the LLM path is unavailable, times out, or returns something that
// doesn't parse into valid assignments.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seezatnap/swarm-hug/internal/domain"
)

// Result reports what assignment pass produced the final task states.
type Result struct {
	AssignedCount int
	UsedLLM       bool
	RawResponse   string
	FallbackNote  string // why the LLM path was not used or was discarded, if applicable
}

// llmAssignment is one element of the LLM's {"assignments": [...]} reply.
type llmAssignment struct {
	Agent  string `json:"agent"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type llmResponse struct {
	Assignments []llmAssignment `json:"assignments"`
}

// Assign mutates taskList in place, assigning as many assignable tasks as
// the assignability, ordering, fairness, and cap rules permit. When engine is non-nil and is not
// a stub, it is asked for an intelligent assignment first; any failure
// falls back to the deterministic pass performed by TaskList.AssignSprint.
func Assign(ctx context.Context, engine domain.Engine, taskList *domain.TaskList, agentInitials []byte, tasksPerAgent int, timeout time.Duration, repoRoot, project string) Result {
	if engine == nil || engine.Type().Kind == domain.EngineKindStub {
		n := taskList.AssignSprint(agentInitials, tasksPerAgent)
		return Result{AssignedCount: n, FallbackNote: "stub or no engine configured"}
	}

	prompt, ok := buildScrumMasterPrompt(taskList, agentInitials, tasksPerAgent, repoRoot, project)
	if !ok {
		return Result{FallbackNote: "no assignable tasks"}
	}

	result, err := engine.Execute(ctx, prompt, domain.LoopDir(repoRoot, project), timeout)
	if err != nil || !result.Success {
		n := taskList.AssignSprint(agentInitials, tasksPerAgent)
		return Result{AssignedCount: n, FallbackNote: fmt.Sprintf("planning engine failed: %v", engineFailureReason(err, result))}
	}

	assignments, parseErr := parseAssignments(result.Stdout)
	if parseErr != nil {
		n := taskList.AssignSprint(agentInitials, tasksPerAgent)
		return Result{AssignedCount: n, RawResponse: result.Stdout, FallbackNote: fmt.Sprintf("unparseable response: %v", parseErr)}
	}

	applied := applyAssignments(taskList, assignments, agentInitials, tasksPerAgent)
	if applied == 0 {
		n := taskList.AssignSprint(agentInitials, tasksPerAgent)
		return Result{AssignedCount: n, RawResponse: result.Stdout, FallbackNote: "no valid assignments in parsed response"}
	}

	return Result{AssignedCount: applied, UsedLLM: true, RawResponse: result.Stdout}
}

func engineFailureReason(err error, result domain.EngineResult) string {
	if err != nil {
		return err.Error()
	}
	return strings.TrimSpace(result.Stderr)
}

// buildScrumMasterPrompt renders the assignment prompt, or ok=false if
// there is nothing assignable to ask about.
func buildScrumMasterPrompt(taskList *domain.TaskList, agentInitials []byte, tasksPerAgent int, repoRoot, project string) (string, bool) {
	type lineDesc struct {
		line int
		desc string
	}
	var unassigned []lineDesc
	for i, t := range taskList.Tasks {
		if taskList.IsTaskAssignable(i) {
			unassigned = append(unassigned, lineDesc{line: i + 1, desc: t.Description})
		}
	}
	if len(unassigned) == 0 {
		return "", false
	}

	numAgents := len(agentInitials)
	totalCap := numAgents * tasksPerAgent
	toAssign := len(unassigned)
	if totalCap < toAssign {
		toAssign = totalCap
	}

	var agentList strings.Builder
	for _, initial := range agentInitials {
		name, _ := domain.NameFromInitial(initial)
		fmt.Fprintf(&agentList, "  - %c (%s)\n", initial, name)
	}

	var taskListStr strings.Builder
	for _, ld := range unassigned {
		fmt.Fprintf(&taskListStr, "  Line %d: %s\n", ld.line, ld.desc)
	}

	vars := map[string]string{
		"to_assign":       strconv.Itoa(toAssign),
		"num_agents":      strconv.Itoa(numAgents),
		"tasks_per_agent": strconv.Itoa(tasksPerAgent),
		"num_unassigned":  strconv.Itoa(len(unassigned)),
		"agent_list":      agentList.String(),
		"task_list":       taskListStr.String(),
	}

	tmpl := domain.LoadPromptTemplate(repoRoot, project, "scrum_master", defaultScrumMasterTemplate)
	return domain.RenderTemplate(tmpl, vars), true
}

// parseAssignments extracts the first balanced {...} object from
// response and decodes it as the assignments payload.
func parseAssignments(response string) ([]llmAssignment, error) {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	object, ok := extractFirstJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no balanced JSON object found in response")
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return nil, fmt.Errorf("decode assignments JSON: %w", err)
	}
	if len(parsed.Assignments) == 0 {
		return nil, fmt.Errorf("assignments array is empty")
	}
	return parsed.Assignments, nil
}

// applyAssignments assigns tasks by 1-indexed line number, honoring the
// same cap/assignability rules as the deterministic fallback, and
// ignoring any entry that violates them (out-of-range line, invalid
// agent initial, already-assigned or blocked task, or an agent already
// at its cap). It does not rebalance the proposed entries across agents.
// Entries are applied in ascending line order so behavior
// doesn't depend on the order the LLM happened to list them in.
func applyAssignments(taskList *domain.TaskList, assignments []llmAssignment, agentInitials []byte, tasksPerAgent int) int {
	valid := make(map[byte]bool, len(agentInitials))
	for _, initial := range agentInitials {
		valid[initial] = true
	}

	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Line < assignments[j].Line })

	counts := make(map[byte]int, len(agentInitials))
	applied := 0
	for _, a := range assignments {
		if len(a.Agent) != 1 {
			continue
		}
		initial := byte(strings.ToUpper(a.Agent)[0])
		if !valid[initial] || counts[initial] >= tasksPerAgent {
			continue
		}
		idx := a.Line - 1
		if idx < 0 || idx >= len(taskList.Tasks) || !taskList.IsTaskAssignable(idx) {
			continue
		}
		taskList.Tasks[idx].Assign(initial)
		counts[initial]++
		applied++
	}
	return applied
}
