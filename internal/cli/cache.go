// Package cli — cache.go implements the "cmdbridge cache" commands.
//
// refresh recompiles every (domain, group) template set from the
// current configuration and persists the result; status compares the
// configuration fingerprint against the manifest without rebuilding
// anything.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JohanChane/cmdbridge/internal/cache"
)

// NewCacheCommand creates the "cache" cobra command with its
// subcommands. It is called from NewRootCommand.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled template cache",
	}

	cmd.AddCommand(newCacheRefreshCommand())
	cmd.AddCommand(newCacheStatusCommand())

	return cmd
}

// --- cache refresh ---

// newCacheRefreshCommand creates the "cache refresh" subcommand.
func newCacheRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompile and persist all template sets",
		Long: `Recompile the template sets of every (domain, group) pair from
the current configuration and write them to the cache directory.

Groups whose grammar is broken or missing are excluded with a recorded
reason instead of failing the whole build; operations whose command
format cannot be compiled are skipped the same way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheRefresh(cmd.Context())
		},
	}
}

// runCacheRefresh is the main logic function for cache refresh.
func runCacheRefresh(ctx context.Context) error {
	paths, snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	c, err := cache.Build(ctx, snap, slog.Default())
	if err != nil {
		return err
	}
	if err := c.Save(paths); err != nil {
		return err
	}

	printRefreshResult(c)
	return nil
}

// cacheSetJSON is the JSON output structure for one compiled set.
type cacheSetJSON struct {
	Domain    string `json:"domain"`
	Group     string `json:"group"`
	Templates int    `json:"templates"`
	Skipped   int    `json:"skipped,omitempty"`
}

// printRefreshResult reports what the build produced, in text or JSON.
func printRefreshResult(c *cache.Cache) {
	sets := c.Sets()
	excluded := c.Excluded()

	if IsJSONOutput() {
		type resultJSON struct {
			Fingerprint string            `json:"fingerprint"`
			BuiltAt     time.Time         `json:"builtAt"`
			Sets        []cacheSetJSON    `json:"sets"`
			Excluded    []cache.Exclusion `json:"excluded,omitempty"`
		}
		result := resultJSON{
			Fingerprint: c.Fingerprint(),
			BuiltAt:     c.BuiltAt(),
			Sets:        make([]cacheSetJSON, 0, len(sets)),
			Excluded:    excluded,
		}
		for _, set := range sets {
			result.Sets = append(result.Sets, cacheSetJSON{
				Domain:    set.Domain,
				Group:     set.Group,
				Templates: len(set.Templates),
				Skipped:   len(set.Skipped),
			})
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	templates := 0
	for _, set := range sets {
		templates += len(set.Templates)
	}
	fmt.Printf("Compiled %d template sets (%d templates).\n", len(sets), templates)

	for _, set := range sets {
		if len(set.Skipped) == 0 {
			continue
		}
		for _, skip := range set.Skipped {
			fmt.Printf("  skipped %s/%s %s: %s\n", set.Domain, set.Group, skip.Operation, skip.Reason)
		}
	}
	for _, excl := range excluded {
		fmt.Printf("  excluded %s/%s: %s\n", excl.Domain, excl.Group, excl.Reason)
	}
}

// --- cache status ---

// newCacheStatusCommand creates the "cache status" subcommand.
func newCacheStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the compiled cache matches the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStatus()
		},
	}
}

// cacheStatusJSON is the JSON output structure for cache status.
type cacheStatusJSON struct {
	State       string            `json:"state"`
	BuiltAt     *time.Time        `json:"builtAt,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Sets        []cacheSetJSON    `json:"sets,omitempty"`
	Excluded    []cache.Exclusion `json:"excluded,omitempty"`
}

// runCacheStatus is the main logic function for cache status.
func runCacheStatus() error {
	paths, snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	current := cache.Fingerprint(snap.Files)

	c, err := cache.Open(paths)
	if errors.Is(err, cache.ErrNoCache) {
		printCacheStatus(cacheStatusJSON{State: "missing"})
		return nil
	}
	if err != nil {
		return err
	}

	state := "fresh"
	if c.Fingerprint() != current {
		state = "stale"
	}
	builtAt := c.BuiltAt()
	status := cacheStatusJSON{
		State:       state,
		BuiltAt:     &builtAt,
		Fingerprint: c.Fingerprint(),
		Excluded:    c.Excluded(),
	}
	for _, set := range c.Sets() {
		status.Sets = append(status.Sets, cacheSetJSON{
			Domain:    set.Domain,
			Group:     set.Group,
			Templates: len(set.Templates),
			Skipped:   len(set.Skipped),
		})
	}
	printCacheStatus(status)
	return nil
}

// printCacheStatus outputs the status report, in text or JSON.
func printCacheStatus(status cacheStatusJSON) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return
	}

	if status.State == "missing" {
		fmt.Println("No compiled cache; run `cmdbridge cache refresh`.")
		return
	}

	fmt.Printf("%-13s%s\n", "State:", status.State)
	if status.State == "stale" {
		fmt.Printf("%-13s%s\n", "", "configuration changed since the last refresh")
	}
	fmt.Printf("%-13s%s\n", "Built:", status.BuiltAt.Format(time.RFC3339))
	fmt.Printf("%-13s%s\n", "Fingerprint:", status.Fingerprint)
	for _, set := range status.Sets {
		line := fmt.Sprintf("%s/%s: %d templates", set.Domain, set.Group, set.Templates)
		if set.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", set.Skipped)
		}
		fmt.Printf("%-13s%s\n", "Set:", line)
	}
	for _, excl := range status.Excluded {
		fmt.Printf("%-13s%s/%s: %s\n", "Excluded:", excl.Domain, excl.Group, excl.Reason)
	}
}
