package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sandwichfarm/schemata/cmd/schemata/commands"
)

// Version info for the schemata build tool
// These variables are injected at build time via ldflags
var (
	// Version is the current version of the schemata build tool
	Version = "dev"

	// BuildTime is the time at which the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit that was compiled
	GitCommit = "unknown"
)

func main() {
	log.SetFlags(0) // Remove timestamp from logs

	root := commands.NewRootCommand(commands.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
