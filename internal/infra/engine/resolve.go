package engine

import (
	"os/exec"
	"strings"
)

// resolveCLIPath resolves the full path to a CLI binary using "which", for
// better portability across shells and PATH setups than relying on exec's
// own lookup. Falls back to the bare name if "which" can't find it, so
// downstream exec.Command still produces a sensible "not found" error.
func resolveCLIPath(name string) string {
	out, err := exec.Command("which", name).Output()
	if err != nil {
		return name
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return name
	}
	return path
}
