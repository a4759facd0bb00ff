// Package main is the entry point for the cmdbridge CLI.
//
// This binary translates command lines between equivalent programs
// based on declarative per-program grammars and operation mappings. It
// delegates all functionality to the internal/cli package, which
// defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via
// ldflags during the release process. During development, they default
// to "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/JohanChane/cmdbridge/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package. This keeps
	// the build system decoupled from the CLI framework.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Create the root command with all subcommands registered, then
	// execute it. Execute handles error formatting and exit codes.
	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
