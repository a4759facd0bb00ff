// Package cli — completion.go feeds cobra's dynamic shell completion
// from the configuration tree: domains, groups, and operations complete
// to what the user actually has configured.
package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

// registerGroupFlagCompletions wires completion for the --domain,
// --source-group and --dest-group flags wherever they are declared.
func registerGroupFlagCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("domain") != nil {
		_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
	}
	for _, name := range []string{"source-group", "dest-group"} {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, completeGroups)
		}
	}
}

// completeDomains completes to the configured domain names.
func completeDomains(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	snap := snapshotForCompletion()
	if snap == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return snap.DomainNames(), cobra.ShellCompDirectiveNoFileComp
}

// completeGroups completes to the group names of the selected domain,
// honoring an already typed --domain flag and the configured default.
func completeGroups(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	snap := snapshotForCompletion()
	if snap == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	domain, _ := cmd.Flags().GetString("domain")
	if domain == "" {
		domain = snap.Global.DefaultDomain
	}
	return snap.GroupNames(domain), cobra.ShellCompDirectiveNoFileComp
}

// completeOperations completes the first positional of op to the
// domain's declared operation names.
func completeOperations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		// Only the operation name completes; values are free-form.
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	snap := snapshotForCompletion()
	if snap == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	domain, _ := cmd.Flags().GetString("domain")
	if domain == "" {
		domain = snap.Global.DefaultDomain
	}
	d := snap.Domain(domain)
	if d == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(d.Interface))
	for name := range d.Interface {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}
