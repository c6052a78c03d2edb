package domain

import "strings"

// agentNames maps the 26 agent initials 'A'..'Z' to canonical names.
var agentNames = [26]string{
	"Aaron", "Betty", "Carlos", "Diana", "Ethan", "Fiona", "George", "Hannah",
	"Ian", "Julia", "Kevin", "Laura", "Miguel", "Nadia", "Omar", "Priya",
	"Quinn", "Rosa", "Sam", "Tina", "Uma", "Victor", "Wendy", "Xavier",
	"Yara", "Zane",
}

// NameFromInitial returns the canonical agent name for an initial,
// case-insensitive. Returns ok=false for anything outside A-Z.
func NameFromInitial(initial byte) (name string, ok bool) {
	u := upperInitial(initial)
	if u < 'A' || u > 'Z' {
		return "", false
	}
	return agentNames[u-'A'], true
}

// InitialFromName returns the agent initial for a canonical name, matched
// case-sensitively against the roster.
func InitialFromName(name string) (initial byte, ok bool) {
	for i, n := range agentNames {
		if n == name {
			return byte('A' + i), true
		}
	}
	return 0, false
}

// GetNames returns the first n canonical agent names, clamped to the
// 26-name roster.
func GetNames(n int) []string {
	if n > len(agentNames) {
		n = len(agentNames)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	copy(out, agentNames[:n])
	return out
}

// GetInitials returns the first n agent initials, clamped to the 26-letter
// roster.
func GetInitials(n int) []byte {
	if n > len(agentNames) {
		n = len(agentNames)
	}
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte('A' + i)
	}
	return out
}

// isValidInitial reports whether b is an ASCII letter.
func isValidInitial(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsValidInitial reports whether b is an ASCII letter.
func IsValidInitial(b byte) bool {
	return isValidInitial(b)
}

// IsValidName reports whether name exactly matches an entry in the agent
// roster.
func IsValidName(name string) bool {
	_, ok := InitialFromName(name)
	return ok
}

// InitialFromNameLower matches names case-insensitively, used when parsing
// free-form engine prompt variables and worktree directory names (which
// lowercase the agent name, per AgentBranchName).
func InitialFromNameLower(name string) (byte, bool) {
	lower := strings.ToLower(name)
	for i, n := range agentNames {
		if strings.ToLower(n) == lower {
			return byte('A' + i), true
		}
	}
	return 0, false
}
