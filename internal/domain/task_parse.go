package domain

import (
	"strings"
)

// ParseTaskList parses a tasks.md document into header lines, tasks (each
// carrying any non-task lines that immediately preceded it), and trailing
// footer lines. String(ParseTaskList(s)) reproduces s, modulo explicit
// mutations to the returned TaskList.
func ParseTaskList(content string) TaskList {
	var tl TaskList
	var pendingPrefix []string
	seenTask := false

	lines := strings.Split(content, "\n")
	// A trailing newline produces a final empty element; drop it so
	// round-tripping doesn't accumulate a spurious blank line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		if task, ok := parseTaskLine(line, i+1); ok {
			task.Prefix = pendingPrefix
			pendingPrefix = nil
			tl.Tasks = append(tl.Tasks, task)
			seenTask = true
			continue
		}
		if !seenTask {
			tl.Header = append(tl.Header, line)
			continue
		}
		pendingPrefix = append(pendingPrefix, line)
	}
	tl.Footer = pendingPrefix

	return tl
}

// String reconstructs the tasks.md document from a TaskList.
func (tl TaskList) String() string {
	var b strings.Builder
	for _, l := range tl.Header {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	for _, t := range tl.Tasks {
		for _, l := range t.Prefix {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteString(t.ToLine())
		b.WriteByte('\n')
	}
	for _, l := range tl.Footer {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// parseTaskLine recognizes a single checklist line of the form
// "- [ ] description", "- [A] description", or "- [x] description (A)".
// Lines with any other marker shape are not task lines at all, and fall
// through to header/prefix/footer accumulation.
func parseTaskLine(line string, lineNumber int) (Task, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- [") {
		return Task{}, false
	}
	bracketEnd := strings.IndexByte(trimmed, ']')
	if bracketEnd < 4 {
		return Task{}, false
	}
	marker := trimmed[3:bracketEnd]
	rest := strings.TrimSpace(trimmed[bracketEnd+1:])

	switch {
	case marker == " ":
		return Task{Description: rest, Status: Unassigned, LineNumber: lineNumber}, true

	case marker == "x" || marker == "X":
		if initial, desc, ok := stripTrailingAttribution(rest); ok {
			return Task{Description: desc, Status: Completed, Initial: initial, LineNumber: lineNumber}, true
		}
		return Task{Description: rest, Status: Completed, Initial: '?', LineNumber: lineNumber}, true

	case len(marker) == 1 && isValidInitial(marker[0]):
		return Task{Description: rest, Status: Assigned, Initial: upperInitial(marker[0]), LineNumber: lineNumber}, true

	default:
		return Task{}, false
	}
}

// stripTrailingAttribution extracts a trailing " (A)" agent-initial
// attribution from a completed task's description.
func stripTrailingAttribution(rest string) (initial byte, desc string, ok bool) {
	if !strings.HasSuffix(rest, ")") {
		return 0, "", false
	}
	idx := strings.LastIndex(rest, " (")
	if idx < 0 {
		return 0, "", false
	}
	candidate := rest[idx+2 : len(rest)-1]
	if len(candidate) != 1 || !isValidInitial(candidate[0]) {
		return 0, "", false
	}
	return upperInitial(candidate[0]), rest[:idx], true
}
