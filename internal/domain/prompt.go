package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadCoauthorEmail reads and validates the optional co-author email file.
// Returns "", false if the file is absent, empty, or does not look like an
// email address.
func ReadCoauthorEmail(repoRoot string) (string, bool) {
	data, err := os.ReadFile(EmailFilePath(repoRoot))
	if err != nil {
		return "", false
	}
	email := strings.TrimSpace(string(data))
	if email == "" || !strings.Contains(email, "@") {
		return "", false
	}
	return email, true
}

// GenerateCoauthorLine returns a "\nCo-Authored-By: <user><<email>>" trailer
// suggestion for an agent's commit message, or "" if no valid email is
// configured.
func GenerateCoauthorLine(repoRoot string) string {
	email, ok := ReadCoauthorEmail(repoRoot)
	if !ok {
		return ""
	}
	user := email
	if idx := strings.IndexByte(email, '@'); idx >= 0 {
		user = email[:idx]
	}
	return fmt.Sprintf("\nCo-Authored-By: %s<%s>", user, email)
}

// maxTaskShortChars bounds the truncated task description used in prompt
// templates.
const maxTaskShortChars = 50

// truncatedTaskShortChars is the rune budget left after appending an
// ellipsis marker to a truncated description.
const truncatedTaskShortChars = maxTaskShortChars - 3

// taskShort truncates a description to at most 50 runes, appending "..."
// when truncation occurs.
func taskShort(description string) string {
	runes := []rune(description)
	if len(runes) <= maxTaskShortChars {
		return description
	}
	return string(runes[:truncatedTaskShortChars]) + "..."
}

// AgentPromptVars is the set of template variables available when
// rendering an agent's task prompt.
type AgentPromptVars struct {
	AgentName       string
	TaskDescription string
	TeamDir         string
	CoAuthor        string
}

// BuildAgentPromptVars assembles the template variables for an agent's
// task prompt. Returns ok=false when agentName does not map to a known
// agent initial (e.g. a non-agent role that receives the raw task
// description unrendered).
func BuildAgentPromptVars(agentName, taskDescription, repoRoot, teamDir string) (vars map[string]string, ok bool) {
	initial, found := InitialFromNameLower(agentName)
	if !found {
		return nil, false
	}
	name, _ := NameFromInitial(initial)
	return map[string]string{
		"agent_name":       name,
		"agent_name_lower": strings.ToLower(name),
		"agent_initial":    string(initial),
		"task_description": taskDescription,
		"task_short":       taskShort(taskDescription),
		"co_author":        GenerateCoauthorLine(repoRoot),
		"team_dir":         teamDir,
	}, true
}

// RenderTemplate substitutes "{{var}}" placeholders in tmpl with values
// from vars, leaving unmatched placeholders untouched.
func RenderTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// LoadPromptTemplate returns the operator's override for the named
// template (.swarm-hug/<project>/prompts/<name>.md) if present, or
// defaultTmpl otherwise. Lets an operator customize the scrum-master,
// merge, and review prompts without touching code.
func LoadPromptTemplate(repoRoot, project, name, defaultTmpl string) string {
	path := filepath.Join(PromptsDir(repoRoot, project), name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultTmpl
	}
	return string(data)
}
