// StructSim console - command-line administration of StructSim configuration entities.
package main

import (
	"os"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/cli"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/version"
)

// Version information, set with -ldflags at release time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Set version in version package (canonical source for all packages)
	if Version != "dev" {
		version.Version = Version
	}
	if BuildTime != "unknown" {
		version.BuildTime = BuildTime
	}

	// Errors are printed by Execute
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
