// Command swarm-hug drives a sprint of autonomous coding agents against a
// git repository: plan, execute, review, and merge, one sprint at a time,
// until the task backlog is drained, a sprint cap is hit, or the operator
// asks it to stop.
package main

import (
	"fmt"
	"os"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	os.Exit(execute())
}

// execute runs the root command and maps the returned error to the exit
// code contract: 0 success, 2 configuration/usage, 124 engine timeout,
// 130 shutdown requested, nonzero otherwise.
func execute() int {
	root := newRootCommand(version)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(os.Stderr, err)
	return exitCodeFor(err)
}
