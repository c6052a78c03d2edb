package domain

import "testing"

func TestSprintBranchName(t *testing.T) {
	tests := []struct {
		name    string
		project string
		sprint  int
		hash    string
		want    string
	}{
		{name: "sprint one", project: "proj", sprint: 1, hash: "ab12cd", want: "proj-sprint-1-ab12cd"},
		{name: "larger sprint number", project: "myapp", sprint: 42, hash: "zz99aa", want: "myapp-sprint-42-zz99aa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SprintBranchName(tt.project, tt.sprint, tt.hash)
			if got != tt.want {
				t.Errorf("SprintBranchName(%q, %d, %q) = %q, want %q", tt.project, tt.sprint, tt.hash, got, tt.want)
			}
		})
	}
}

func TestAgentBranchName(t *testing.T) {
	tests := []struct {
		name      string
		project   string
		agentName string
		hash      string
		want      string
	}{
		{name: "lowercase agent name", project: "proj", agentName: "aaron", hash: "ab12cd", want: "proj-agent-aaron-ab12cd"},
		{name: "uppercase agent name gets lowered", project: "proj", agentName: "Betty", hash: "cd34ef", want: "proj-agent-betty-cd34ef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgentBranchName(tt.project, tt.agentName, tt.hash)
			if got != tt.want {
				t.Errorf("AgentBranchName(%q, %q, %q) = %q, want %q", tt.project, tt.agentName, tt.hash, got, tt.want)
			}
		})
	}
}

func TestParseSprintBranch(t *testing.T) {
	project, sprint, hash, ok := ParseSprintBranch("proj-sprint-1-ab12cd")
	if !ok {
		t.Fatalf("ParseSprintBranch: expected ok=true")
	}
	if project != "proj" || sprint != 1 || hash != "ab12cd" {
		t.Errorf("ParseSprintBranch = (%q, %d, %q), want (proj, 1, ab12cd)", project, sprint, hash)
	}

	// A project name itself containing hyphens should still resolve, since
	// the pattern is greedy on the project capture group.
	project, sprint, hash, ok = ParseSprintBranch("my-cool-app-sprint-7-zz99aa")
	if !ok {
		t.Fatalf("ParseSprintBranch: expected ok=true for hyphenated project")
	}
	if project != "my-cool-app" || sprint != 7 || hash != "zz99aa" {
		t.Errorf("ParseSprintBranch = (%q, %d, %q), want (my-cool-app, 7, zz99aa)", project, sprint, hash)
	}

	_, _, _, ok = ParseSprintBranch("main")
	if ok {
		t.Errorf("ParseSprintBranch(main): expected ok=false")
	}

	_, _, _, ok = ParseSprintBranch("proj-agent-aaron-ab12cd")
	if ok {
		t.Errorf("ParseSprintBranch(agent branch): expected ok=false")
	}
}

func TestParseAgentBranch(t *testing.T) {
	project, agentName, hash, ok := ParseAgentBranch("proj-agent-aaron-ab12cd")
	if !ok {
		t.Fatalf("ParseAgentBranch: expected ok=true")
	}
	if project != "proj" || agentName != "aaron" || hash != "ab12cd" {
		t.Errorf("ParseAgentBranch = (%q, %q, %q), want (proj, aaron, ab12cd)", project, agentName, hash)
	}

	_, _, _, ok = ParseAgentBranch("main")
	if ok {
		t.Errorf("ParseAgentBranch(main): expected ok=false")
	}

	_, _, _, ok = ParseAgentBranch("proj-sprint-1-ab12cd")
	if ok {
		t.Errorf("ParseAgentBranch(sprint branch): expected ok=false")
	}
}

func TestBranchRoundTrip(t *testing.T) {
	sprintBranch := SprintBranchName("proj", 3, "ab12cd")
	project, sprint, hash, ok := ParseSprintBranch(sprintBranch)
	if !ok || project != "proj" || sprint != 3 || hash != "ab12cd" {
		t.Errorf("round trip failed for %q: got (%q, %d, %q, %v)", sprintBranch, project, sprint, hash, ok)
	}

	agentBranch := AgentBranchName("proj", "Carlos", "ab12cd")
	project, agentName, hash, ok := ParseAgentBranch(agentBranch)
	if !ok || project != "proj" || agentName != "carlos" || hash != "ab12cd" {
		t.Errorf("round trip failed for %q: got (%q, %q, %q, %v)", agentBranch, project, agentName, hash, ok)
	}
}

func TestPathFunctions(t *testing.T) {
	repoRoot := "/repo"
	project := "proj"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"SwarmHugDir", SwarmHugDir(repoRoot, project), "/repo/.swarm-hug/proj"},
		{"TasksFilePath", TasksFilePath(repoRoot, project), "/repo/.swarm-hug/proj/tasks.md"},
		{"ChatLogPath", ChatLogPath(repoRoot, project), "/repo/.swarm-hug/proj/chat.md"},
		{"SpecsFilePath", SpecsFilePath(repoRoot, project), "/repo/.swarm-hug/proj/specs.md"},
		{"PromptFilePath", PromptFilePath(repoRoot, project), "/repo/.swarm-hug/proj/prompt.md"},
		{"WorktreesDir", WorktreesDir(repoRoot, project), "/repo/.swarm-hug/proj/worktrees"},
		{"SprintWorktreeDir", SprintWorktreeDir(repoRoot, project, "proj-sprint-1-ab12cd"), "/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd"},
		{"LoopDir", LoopDir(repoRoot, project), "/repo/.swarm-hug/proj/loop"},
		{"RunLogPath", RunLogPath(repoRoot, project), "/repo/.swarm-hug/proj/loop/run.log"},
		{"AgentLogPath", AgentLogPath(repoRoot, project, "A"), "/repo/.swarm-hug/proj/loop/a.log"},
		{"PromptsDir", PromptsDir(repoRoot, project), "/repo/.swarm-hug/proj/prompts"},
		{"EmailFilePath", EmailFilePath(repoRoot), "/repo/.swarm-hug/email.txt"},
		{"SprintHistoryPath", SprintHistoryPath("/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd"), "/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd/sprint-history.yaml"},
		{"TeamStatePath", TeamStatePath("/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd"), "/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd/team-state.yaml"},
		{"RunManifestPath", RunManifestPath("/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd"), "/repo/.swarm-hug/proj/worktrees/proj-sprint-1-ab12cd/run-manifest.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestSanitizeBranchForPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"feature/x", "feature-x"},
		{"a b:c", "a-b-c"},
		{"plain-branch", "plain-branch"},
		{"with.dots_and-dashes", "with.dots_and-dashes"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeBranchForPath(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeBranchForPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSharedTargetWorktreeDir(t *testing.T) {
	got := SharedTargetWorktreeDir("/repo", "feature/x")
	want := "/repo/swarm-hub/.shared/worktrees/feature-x"
	if got != want {
		t.Errorf("SharedTargetWorktreeDir = %q, want %q", got, want)
	}
}
