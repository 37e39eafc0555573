// Command ddprofdemo is a small example binary exercising profile,
// transport, and tag end to end: it builds a profile, adds a handful of
// synthetic samples, serializes it, and ships the result through the
// connector to an agent URL, following the command-tree construction
// style of cloudwego-goref's cmd/grf/cmds/commands.go.
package main

import (
	"os"

	"github.com/continuous-profiler/ddprof-go/cmd/ddprofdemo/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
