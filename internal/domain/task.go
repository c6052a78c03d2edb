package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a checklist task.
type Status int

const (
	// Unassigned tasks have not yet been picked up by an agent.
	Unassigned Status = iota
	// Assigned tasks are currently owned by the agent named by Initial.
	Assigned
	// Completed tasks have been finished by the agent named by Initial.
	Completed
)

// Task is one checklist line from tasks.md.
type Task struct {
	Description string // text after the "- [x] " marker, attribution stripped
	Prefix      []string
	Status      Status
	Initial     byte // agent initial for Assigned/Completed, 0 for Unassigned
	LineNumber  int  // 1-indexed position in the original file
}

// NewTask returns an Unassigned task with the given description.
func NewTask(description string) Task {
	return Task{Description: description, Status: Unassigned}
}

// ToLine renders the task as a single checklist line, without a trailing
// newline.
func (t Task) ToLine() string {
	switch t.Status {
	case Assigned:
		return fmt.Sprintf("- [%c] %s", t.Initial, t.Description)
	case Completed:
		return fmt.Sprintf("- [x] %s (%c)", t.Description, t.Initial)
	default:
		return "- [ ] " + t.Description
	}
}

// Assign marks the task as owned by the given agent initial. No-op unless
// the task is currently Unassigned.
func (t *Task) Assign(initial byte) {
	if t.Status == Unassigned {
		t.Status = Assigned
		t.Initial = upperInitial(initial)
	}
}

// Unassign reverts an Assigned task back to Unassigned. No-op for
// Unassigned or Completed tasks.
func (t *Task) Unassign() {
	if t.Status == Assigned {
		t.Status = Unassigned
		t.Initial = 0
	}
}

// Complete marks the task as finished by the given agent initial,
// regardless of its current status.
func (t *Task) Complete(initial byte) {
	t.Status = Completed
	t.Initial = upperInitial(initial)
}

// IsAssignable reports whether the task is bare Unassigned. Blocker checks
// are TaskList's responsibility, not Task's.
func (t Task) IsAssignable() bool {
	return t.Status == Unassigned
}

// TaskNumber extracts the leading "(#N)" marker from the description, if
// present.
func (t Task) TaskNumber() (int, bool) {
	s := strings.TrimSpace(t.Description)
	rest, ok := strings.CutPrefix(s, "(#")
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 || end >= len(rest) || rest[end] != ')' {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasBlockers reports whether the description carries a "(blocked by ...)"
// annotation.
func (t Task) HasBlockers() bool {
	return strings.Contains(t.Description, "(blocked by ")
}

// BlockingTaskNumbers returns the task numbers named by a "(blocked by
// #N, #M)" annotation. Malformed entries are silently skipped.
func (t Task) BlockingTaskNumbers() []int {
	idx := strings.Index(t.Description, "(blocked by ")
	if idx < 0 {
		return nil
	}
	rest := t.Description[idx+len("(blocked by "):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return nil
	}
	parts := strings.Split(rest[:end], ",")
	var nums []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "#")
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

func upperInitial(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// TaskList is a parsed tasks.md document: non-task lines before the first
// task (Header), each task with any non-task lines that preceded it
// (Prefix, attached to Tasks), and any non-task lines after the last task
// (Footer).
type TaskList struct {
	Header []string
	Tasks  []Task
	Footer []string
}

// UnassignedCount returns the number of Unassigned tasks.
func (tl TaskList) UnassignedCount() int {
	n := 0
	for _, t := range tl.Tasks {
		if t.Status == Unassigned {
			n++
		}
	}
	return n
}

// AssignedCount returns the number of Assigned tasks.
func (tl TaskList) AssignedCount() int {
	n := 0
	for _, t := range tl.Tasks {
		if t.Status == Assigned {
			n++
		}
	}
	return n
}

// CompletedCount returns the number of Completed tasks.
func (tl TaskList) CompletedCount() int {
	n := 0
	for _, t := range tl.Tasks {
		if t.Status == Completed {
			n++
		}
	}
	return n
}

// MaxTaskNumber returns the highest "(#N)" marker across all tasks, or 0 if
// none carry one.
func (tl TaskList) MaxTaskNumber() int {
	max := 0
	for _, t := range tl.Tasks {
		if n, ok := t.TaskNumber(); ok && n > max {
			max = n
		}
	}
	return max
}

// UnassignAll reverts every Assigned task back to Unassigned, used at
// sprint start to reset incomplete tasks left over from a previous sprint.
// Returns the number of tasks reverted.
func (tl *TaskList) UnassignAll() int {
	n := 0
	for i := range tl.Tasks {
		if tl.Tasks[i].Status == Assigned {
			tl.Tasks[i].Unassign()
			n++
		}
	}
	return n
}

// isTaskNumberCompleted reports whether the task whose description contains
// the literal "(#N)" marker is Completed. Defaults to false (blocked) if no
// task carries that marker.
func (tl TaskList) isTaskNumberCompleted(n int) bool {
	marker := fmt.Sprintf("(#%d)", n)
	for _, t := range tl.Tasks {
		if strings.Contains(t.Description, marker) {
			return t.Status == Completed
		}
	}
	return false
}

// IsTaskBlocked reports whether the task at index i names any blocker task
// number that is not yet Completed.
func (tl TaskList) IsTaskBlocked(i int) bool {
	for _, n := range tl.Tasks[i].BlockingTaskNumbers() {
		if !tl.isTaskNumberCompleted(n) {
			return true
		}
	}
	return false
}

// IsTaskAssignable reports whether the task at index i is Unassigned and
// not blocked.
func (tl TaskList) IsTaskAssignable(i int) bool {
	return tl.Tasks[i].IsAssignable() && !tl.IsTaskBlocked(i)
}

// AssignableCount returns the number of currently assignable tasks.
func (tl TaskList) AssignableCount() int {
	n := 0
	for i := range tl.Tasks {
		if tl.IsTaskAssignable(i) {
			n++
		}
	}
	return n
}

// TasksForAgent returns the tasks currently Assigned to the given agent
// initial.
func (tl TaskList) TasksForAgent(initial byte) []Task {
	upper := upperInitial(initial)
	var out []Task
	for _, t := range tl.Tasks {
		if t.Status == Assigned && t.Initial == upper {
			out = append(out, t)
		}
	}
	return out
}

// AssignSprint performs one forward pass over all tasks, assigning each
// assignable task to the agent with the fewest tasks so far whose count is
// below tasksPerAgent (ties go to the earlier agent in agentInitials order).
// This spreads work across distinct agents before giving any agent a second
// task. Returns the number of tasks assigned.
func (tl *TaskList) AssignSprint(agentInitials []byte, tasksPerAgent int) int {
	counts := make(map[byte]int, len(agentInitials))
	assigned := 0
	for i := range tl.Tasks {
		if !tl.IsTaskAssignable(i) {
			continue
		}
		var pick byte
		found := false
		for _, initial := range agentInitials {
			if counts[initial] < tasksPerAgent && (!found || counts[initial] < counts[pick]) {
				pick = initial
				found = true
			}
		}
		if !found {
			break
		}
		tl.Tasks[i].Assign(pick)
		counts[pick]++
		assigned++
	}
	return assigned
}
