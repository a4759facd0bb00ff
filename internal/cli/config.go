// Package cli — config.go implements the "cmdbridge config" commands.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JohanChane/cmdbridge/internal/config"
)

// NewConfigCommand creates the "config" cobra command with its
// subcommands. It is called from NewRootCommand.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the cmdbridge configuration",
	}

	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

// newConfigInitCommand creates the "config init" subcommand.
func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed a starter configuration",
		Long: `Create the configuration directory and seed it with a working
starter configuration: a "package" domain bridging pacman and apt,
with grammars for both programs.

Existing files are never overwritten, so init is safe to re-run; it
restores only what is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit()
		},
	}
}

// runConfigInit is the main logic function for config init.
func runConfigInit() error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return err
	}
	created, err := config.Init(paths)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		type resultJSON struct {
			ConfigDir string   `json:"configDir"`
			Created   []string `json:"created"`
		}
		result := resultJSON{ConfigDir: paths.ConfigDir, Created: created}
		if result.Created == nil {
			result.Created = []string{}
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(created) == 0 {
		fmt.Printf("Configuration in %s is already complete; nothing created.\n", paths.ConfigDir)
		return nil
	}
	fmt.Printf("Initialized configuration in %s:\n", paths.ConfigDir)
	for _, rel := range created {
		fmt.Printf("  %s\n", rel)
	}
	return nil
}
