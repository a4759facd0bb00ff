// Package cli — map.go implements the "cmdbridge map" command.
//
// map is the primary user-facing operation: it takes a full foreign
// command line, recovers the abstract operation it performs, and prints
// the destination group's equivalent command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JohanChane/cmdbridge/internal/bridge"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// mapFlags holds the flag values for the map command.
// These are bound to cobra flags in NewMapCommand.
type mapFlags struct {
	domain string // --domain: operation domain
	source string // --source-group: group the command is parsed under
	dest   string // --dest-group: group the command is rendered for
	edit   bool   // --edit: print and exit 113 for shell-wrapper injection
}

// NewMapCommand creates the "map" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewMapCommand() *cobra.Command {
	flags := &mapFlags{}

	cmd := &cobra.Command{
		Use:   "map [flags] [--] <command>...",
		Short: "Map a command into another program's equivalent",
		Long: `Map a command line written for one program into the equivalent
command of the destination group.

The source group defaults to the command's own program word; the
domain and destination group default to the configured
default_domain and default_group.

Examples:
  cmdbridge map apt install vim git
  cmdbridge map -t apt -- pacman -S vim
  cmdbridge map -d package -s pacman -t apt pacman -Ss editor`,

		// At least the program word of the command being mapped.
		Args: cobra.MinimumNArgs(1),

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd.Context(), args, flags)
		},
	}

	// Flag parsing stops at the first non-flag word, so the mapped
	// command keeps its own flags untouched even without a "--":
	//   cmdbridge map -t apt pacman -S vim
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "",
		"Operation domain (default: config default_domain)")
	cmd.Flags().StringVarP(&flags.source, "source-group", "s", "",
		"Source group (default: detected from the command's program word)")
	cmd.Flags().StringVarP(&flags.dest, "dest-group", "t", "",
		"Destination group (default: config default_group)")
	cmd.Flags().BoolVar(&flags.edit, "edit", false,
		"Print the mapped command and exit 113 so a shell wrapper can inject it")

	registerGroupFlagCompletions(cmd)

	return cmd
}

// runMap is the main logic function for the map command.
func runMap(ctx context.Context, argv []string, flags *mapFlags) error {
	b, err := openBridge(ctx)
	if err != nil {
		return err
	}

	res, err := b.MapCommand(bridge.MapRequest{
		Domain: flags.domain,
		Source: flags.source,
		Dest:   flags.dest,
		Argv:   argv,
	})
	if err != nil {
		return err
	}

	printMapResult(res)

	if flags.edit {
		// Editor-inject contract: stdout already carries the mapped
		// command, and exit code 113 tells the shell wrapper to place it
		// on the interactive command line instead of executing it. The
		// empty CLIError is the silent carrier for that code.
		return &model.CLIError{Code: model.ExitEditorInject}
	}
	return nil
}

// printMapResult outputs a mapping result in text or JSON format. Text
// mode prints only the rendered command, which keeps the output
// substitutable into pipes and shell wrappers.
func printMapResult(res *bridge.Result) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Println(res.Command)
}
