// Package main is the entry point for the caremini CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Oluwatunmise116/caremini/internal/cli"
)

// loadDotEnv is swappable in tests.
var loadDotEnv = godotenv.Load

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A .env beside the binary can carry CAREMINI_* overrides; a missing
	// file is fine.
	_ = loadDotEnv()

	cmd := cli.NewRootCommand()
	cmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
