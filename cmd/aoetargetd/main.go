// Command aoetargetd exports local block-backed files as ATA over
// Ethernet volumes. See `aoetargetd --help` for usage.
package main

import (
	"fmt"
	"os"

	"github.com/yang123vc/aoetargetd/cmd/aoetargetd/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aoetargetd:", err)
		os.Exit(1)
	}
}
