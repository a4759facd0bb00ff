// Package cli — version.go implements the "cmdbridge version" command,
// a subcommand twin of the --version flag for scripts that prefer it.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the "version" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if IsJSONOutput() {
				data, _ := json.MarshalIndent(map[string]string{
					"version": Version,
					"commit":  Commit,
					"date":    Date,
				}, "", "  ")
				fmt.Println(string(data))
				return
			}
			fmt.Printf("cmdbridge %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
