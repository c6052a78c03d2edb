package main

import "github.com/spf13/cobra"

// newRootCommand builds the swarm-hug root command. Cobra only parses and
// dispatches flags; every resolution and validation decision lives in
// internal/domain and internal/usecase so it stays unit-testable without
// invoking the CLI layer.
func newRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "swarm-hug",
		Short:   "Coordinate a sprint of autonomous coding agents over git worktrees",
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand())
	return root
}
