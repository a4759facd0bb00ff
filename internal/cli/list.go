// Package cli — list.go implements the "cmdbridge list" command group.
//
// The list subcommands display the configured mapping surface without
// compiling anything: domains, their groups, the operation commands a
// domain declares, and the source-to-destination format pairs one
// mapping direction would use. All of it reads straight from the
// configuration snapshot, so listing keeps working even when a grammar
// is broken and the cache cannot build.
package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// listFlags holds the flag values shared by the list subcommands.
type listFlags struct {
	domain string // --domain: operation domain
	source string // --source-group: left side of cmd-mappings
	dest   string // --dest-group: highlighted/right side group
}

// NewListCommand creates the "list" cobra command with its
// subcommands. It is called from NewRootCommand.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured domains, groups, and operation commands",
	}

	cmd.AddCommand(newListDomainsCommand())
	cmd.AddCommand(newListGroupsCommand())
	cmd.AddCommand(newListOpCmdsCommand())
	cmd.AddCommand(newListCmdMappingsCommand())

	return cmd
}

// resolveDomainName applies the configured default domain and verifies
// the result exists in the snapshot.
func resolveDomainName(snap *config.Snapshot, flag string) (string, error) {
	name := flag
	if name == "" {
		name = snap.Global.DefaultDomain
	}
	if name == "" {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			"no domain given and no default_domain configured",
		)
	}
	if snap.Domain(name) == nil {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("unknown domain %q", name),
		)
	}
	return name, nil
}

// sortedOperations returns a domain's operation names, sorted.
func sortedOperations(d *config.Domain) []string {
	names := make([]string, 0, len(d.Interface))
	for name := range d.Interface {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- list domains ---

// newListDomainsCommand creates the "list domains" subcommand.
func newListDomainsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List configured operation domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := loadSnapshot()
			if err != nil {
				return err
			}
			printDomains(snap)
			return nil
		},
	}
}

// domainJSON is the JSON output structure for one domain entry.
type domainJSON struct {
	Name       string   `json:"name"`
	Groups     []string `json:"groups"`
	Operations int      `json:"operations"`
	Default    bool     `json:"default,omitempty"`
}

// printDomains outputs the domain list in text or JSON format.
func printDomains(snap *config.Snapshot) {
	names := snap.DomainNames()

	if IsJSONOutput() {
		type resultJSON struct {
			Domains []domainJSON `json:"domains"`
		}
		result := resultJSON{Domains: make([]domainJSON, 0, len(names))}
		for _, name := range names {
			d := snap.Domain(name)
			result.Domains = append(result.Domains, domainJSON{
				Name:       name,
				Groups:     snap.GroupNames(name),
				Operations: len(d.Interface),
				Default:    name == snap.Global.DefaultDomain,
			})
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(names) == 0 {
		fmt.Println("No domains configured.")
		return
	}
	fmt.Printf("%-20s %-10s %s\n", "DOMAIN", "GROUPS", "OPERATIONS")
	for _, name := range names {
		d := snap.Domain(name)
		display := name
		if name == snap.Global.DefaultDomain {
			display += "*"
		}
		fmt.Printf("%-20s %-10d %d\n", display, len(d.Groups), len(d.Interface))
	}
}

// --- list groups ---

// newListGroupsCommand creates the "list groups" subcommand.
func newListGroupsCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the operation groups of a domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := loadSnapshot()
			if err != nil {
				return err
			}
			domain, err := resolveDomainName(snap, flags.domain)
			if err != nil {
				return err
			}
			printGroups(snap, domain)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "",
		"Operation domain (default: config default_domain)")
	registerGroupFlagCompletions(cmd)

	return cmd
}

// groupJSON is the JSON output structure for one group entry.
type groupJSON struct {
	Name       string `json:"name"`
	Program    string `json:"program,omitempty"`
	Operations int    `json:"operations"`
	Grammar    string `json:"grammar"`
	Default    bool   `json:"default,omitempty"`
}

// grammarStatus describes the grammar backing one group: "ok" when it
// loaded, the broken reason when it did not, "missing" when no grammar
// file exists for the group's program.
func grammarStatus(snap *config.Snapshot, group string) string {
	if _, ok := snap.Grammars[group]; ok {
		return "ok"
	}
	if reason, ok := snap.Broken[group]; ok {
		return "broken: " + reason
	}
	return "missing"
}

// printGroups outputs the group list of one domain.
func printGroups(snap *config.Snapshot, domain string) {
	names := snap.GroupNames(domain)

	if IsJSONOutput() {
		type resultJSON struct {
			Domain string      `json:"domain"`
			Groups []groupJSON `json:"groups"`
		}
		result := resultJSON{Domain: domain, Groups: make([]groupJSON, 0, len(names))}
		for _, name := range names {
			entry := groupJSON{
				Name:       name,
				Operations: len(snap.Group(domain, name).Operations),
				Grammar:    grammarStatus(snap, name),
				Default:    name == snap.Global.DefaultGroup,
			}
			if g, ok := snap.Grammars[name]; ok {
				entry.Program = g.Program
			}
			result.Groups = append(result.Groups, entry)
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(names) == 0 {
		fmt.Printf("No groups configured in domain %q.\n", domain)
		return
	}
	fmt.Printf("%-16s %-12s %-12s %s\n", "GROUP", "PROGRAM", "OPERATIONS", "GRAMMAR")
	for _, name := range names {
		program := "-"
		if g, ok := snap.Grammars[name]; ok {
			program = g.Program
		}
		display := name
		if name == snap.Global.DefaultGroup {
			display += "*"
		}
		fmt.Printf("%-16s %-12s %-12d %s\n",
			display, program, len(snap.Group(domain, name).Operations), grammarStatus(snap, name))
	}
}

// --- list op-cmds ---

// newListOpCmdsCommand creates the "list op-cmds" subcommand.
func newListOpCmdsCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "op-cmds",
		Short: "List every operation command a domain declares",
		Long: `List the command format of every operation in every group of a
domain, one row per (operation, group) pair. The destination group
(--dest-group or the configured default_group) is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := loadSnapshot()
			if err != nil {
				return err
			}
			domain, err := resolveDomainName(snap, flags.domain)
			if err != nil {
				return err
			}
			printOpCmds(snap, domain, flags.dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "",
		"Operation domain (default: config default_domain)")
	cmd.Flags().StringVarP(&flags.dest, "dest-group", "t", "",
		"Group to mark as destination (default: config default_group)")
	registerGroupFlagCompletions(cmd)

	return cmd
}

// opCmdJSON is the JSON output structure for one operation command.
type opCmdJSON struct {
	Group          string `json:"group"`
	CmdFormat      string `json:"cmdFormat"`
	FinalCmdFormat string `json:"finalCmdFormat,omitempty"`
	Dest           bool   `json:"dest,omitempty"`
}

// opCmdsEntryJSON groups one operation's commands across groups.
type opCmdsEntryJSON struct {
	Operation string      `json:"operation"`
	Params    []string    `json:"params,omitempty"`
	Commands  []opCmdJSON `json:"commands"`
}

// printOpCmds outputs the operations-by-group command table.
func printOpCmds(snap *config.Snapshot, domain, destFlag string) {
	d := snap.Domain(domain)
	dest := destFlag
	if dest == "" {
		dest = snap.Global.DefaultGroup
	}
	operations := sortedOperations(d)
	groups := snap.GroupNames(domain)

	if IsJSONOutput() {
		type resultJSON struct {
			Domain     string            `json:"domain"`
			Operations []opCmdsEntryJSON `json:"operations"`
		}
		result := resultJSON{Domain: domain, Operations: make([]opCmdsEntryJSON, 0, len(operations))}
		for _, opName := range operations {
			op := d.Interface[opName]
			entry := opCmdsEntryJSON{Operation: opName, Params: op.Params}
			for _, groupName := range groups {
				gop, ok := snap.Group(domain, groupName).Operations[opName]
				if !ok {
					continue
				}
				entry.Commands = append(entry.Commands, opCmdJSON{
					Group:          groupName,
					CmdFormat:      gop.CmdFormat,
					FinalCmdFormat: gop.FinalCmdFormat,
					Dest:           groupName == dest,
				})
			}
			result.Operations = append(result.Operations, entry)
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(operations) == 0 {
		fmt.Printf("No operations declared in domain %q.\n", domain)
		return
	}
	fmt.Printf("%-20s %-16s %s\n", "OPERATION", "GROUP", "COMMAND")
	for _, opName := range operations {
		for _, groupName := range groups {
			gop, ok := snap.Group(domain, groupName).Operations[opName]
			if !ok {
				continue
			}
			display := groupName
			if groupName == dest {
				display += "*"
			}
			fmt.Printf("%-20s %-16s %s\n", opName, display, formatOpCommand(gop))
		}
	}
}

// formatOpCommand renders one group operation for the text table: the
// matchable format, with the final override appended when it differs.
func formatOpCommand(gop config.GroupOperation) string {
	if gop.FinalCmdFormat != "" && gop.FinalCmdFormat != gop.CmdFormat {
		return fmt.Sprintf("%s  (final: %s)", gop.CmdFormat, gop.FinalCmdFormat)
	}
	return gop.CmdFormat
}

// --- list cmd-mappings ---

// newListCmdMappingsCommand creates the "list cmd-mappings" subcommand.
func newListCmdMappingsCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "cmd-mappings",
		Short: "List the command pairs one mapping direction produces",
		Long: `List, per operation, the source group's matchable command format
next to the destination group's rendered format. This is the static
view of what "cmdbridge map" does: commands shaped like the left
column become the right column.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := loadSnapshot()
			if err != nil {
				return err
			}
			domain, err := resolveDomainName(snap, flags.domain)
			if err != nil {
				return err
			}
			return printCmdMappings(snap, domain, flags.source, flags.dest)
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "",
		"Operation domain (default: config default_domain)")
	cmd.Flags().StringVarP(&flags.source, "source-group", "s", "",
		"Source group of the mapping direction")
	cmd.Flags().StringVarP(&flags.dest, "dest-group", "t", "",
		"Destination group (default: config default_group)")
	_ = cmd.MarkFlagRequired("source-group")
	registerGroupFlagCompletions(cmd)

	return cmd
}

// cmdMappingJSON is the JSON output structure for one operation's
// mapping pair.
type cmdMappingJSON struct {
	Operation string `json:"operation"`
	Source    string `json:"source,omitempty"`
	Dest      string `json:"dest,omitempty"`
}

// printCmdMappings outputs the source-to-destination format pairs.
func printCmdMappings(snap *config.Snapshot, domain, source, destFlag string) error {
	if snap.Group(domain, source) == nil {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("unknown source group %q in domain %q", source, domain),
		)
	}
	dest := destFlag
	if dest == "" {
		dest = snap.Global.DefaultGroup
	}
	if dest == "" {
		return model.NewCLIError(
			model.ExitGeneralError,
			"no destination group given and no default_group configured",
		)
	}
	if snap.Group(domain, dest) == nil {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("unknown destination group %q in domain %q", dest, domain),
		)
	}

	d := snap.Domain(domain)
	sourceOps := snap.Group(domain, source).Operations
	destOps := snap.Group(domain, dest).Operations

	if IsJSONOutput() {
		type resultJSON struct {
			Domain   string           `json:"domain"`
			Source   string           `json:"source"`
			Dest     string           `json:"dest"`
			Mappings []cmdMappingJSON `json:"mappings"`
		}
		result := resultJSON{Domain: domain, Source: source, Dest: dest, Mappings: []cmdMappingJSON{}}
		for _, opName := range sortedOperations(d) {
			entry := cmdMappingJSON{Operation: opName}
			if gop, ok := sourceOps[opName]; ok {
				entry.Source = gop.CmdFormat
			}
			if gop, ok := destOps[opName]; ok {
				entry.Dest = gop.RenderFormat()
			}
			if entry.Source == "" && entry.Dest == "" {
				continue
			}
			result.Mappings = append(result.Mappings, entry)
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-20s %-30s %s\n", "OPERATION", "SOURCE ("+source+")", "DEST ("+dest+")")
	for _, opName := range sortedOperations(d) {
		sourceFormat, destFormat := "-", "-"
		if gop, ok := sourceOps[opName]; ok {
			sourceFormat = gop.CmdFormat
		}
		if gop, ok := destOps[opName]; ok {
			destFormat = gop.RenderFormat()
		}
		if sourceFormat == "-" && destFormat == "-" {
			continue
		}
		fmt.Printf("%-20s %-30s %s\n", opName, sourceFormat, destFormat)
	}
	return nil
}
