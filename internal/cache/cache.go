// Package cache compiles operation groups into reference template sets
// and stores them on disk, so mapping a command does not re-run
// template synthesis on every invocation.
//
// A compiled Set exists per (domain, group). Groups compile
// independently of each other: a broken grammar excludes only its own
// group (with a recorded reason), and a format that fails synthesis
// skips only that operation. Sets are immutable once built and are
// rebuilt only on explicit refresh; the fingerprint of the
// configuration tree they were built from detects staleness.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/render"
	"github.com/JohanChane/cmdbridge/internal/template"
)

// SkippedOp records one operation left out of a compiled set, with the
// synthesis failure that caused it. The operation's render target is
// still available: skipping disables the group as a match source for
// the operation, not as a render destination.
type SkippedOp struct {
	Operation string `json:"operation" yaml:"operation"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Exclusion records one (domain, group) omitted from the cache
// entirely, typically because its grammar failed to load.
type Exclusion struct {
	Domain string `json:"domain" yaml:"domain"`
	Group  string `json:"group" yaml:"group"`
	Reason string `json:"reason" yaml:"reason"`
}

// Set is the compiled form of one operation group: every template that
// could be synthesized, plus the render targets of all its operations.
type Set struct {
	// Domain and Group identify the set.
	Domain string `json:"domain"`
	Group  string `json:"group"`

	// Program is the program word of the group's grammar.
	Program string `json:"program"`

	// Grammar is the grammar the templates were compiled under. Live
	// commands are tokenized with this copy, so matching always uses the
	// grammar the templates came from even if the file changed since.
	Grammar *grammar.Grammar `json:"grammar"`

	// Templates holds the compiled reference trees, in declaration order.
	Templates []*model.Template `json:"templates,omitempty"`

	// Targets maps operation name to its command formats.
	Targets map[string]render.Target `json:"targets,omitempty"`

	// Skipped lists operations that failed synthesis.
	Skipped []SkippedOp `json:"skipped,omitempty"`
}

// Cache is one immutable build of every compilable (domain, group)
// pair.
type Cache struct {
	fingerprint string
	builtAt     time.Time
	sets        map[string]*Set
	excluded    []Exclusion
}

// setKey builds the map key of one set.
func setKey(domain, group string) string {
	return domain + "/" + group
}

// Build compiles every (domain, group) pair of the snapshot. Pairs
// compile in parallel; each job writes only its own slot of the
// pre-allocated results, so no two workers share mutable state. A nil
// logger falls back to slog.Default().
func Build(ctx context.Context, snap *config.Snapshot, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	type job struct {
		domain string
		group  string
	}
	var jobs []job
	for _, domain := range snap.DomainNames() {
		for _, group := range snap.GroupNames(domain) {
			jobs = append(jobs, job{domain: domain, group: group})
		}
	}

	sets := make([]*Set, len(jobs))
	exclusions := make([]*Exclusion, len(jobs))

	eg, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sets[i], exclusions[i] = compileGroup(snap, j.domain, j.group, logger)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	c := &Cache{
		fingerprint: Fingerprint(snap.Files),
		builtAt:     time.Now().UTC().Truncate(time.Second),
		sets:        make(map[string]*Set, len(jobs)),
	}
	for i := range jobs {
		if exclusions[i] != nil {
			logger.Warn("group excluded from cache",
				"domain", exclusions[i].Domain,
				"group", exclusions[i].Group,
				"reason", exclusions[i].Reason)
			c.excluded = append(c.excluded, *exclusions[i])
			continue
		}
		c.sets[setKey(sets[i].Domain, sets[i].Group)] = sets[i]
	}
	return c, nil
}

// compileGroup compiles one operation group into a Set, or into an
// Exclusion when the whole group is unusable.
func compileGroup(snap *config.Snapshot, domain, group string, logger *slog.Logger) (*Set, *Exclusion) {
	g, ok := snap.Grammars[group]
	if !ok {
		reason := fmt.Sprintf("no grammar file for program %q", group)
		if broken, isBroken := snap.Broken[group]; isBroken {
			reason = broken
		}
		return nil, &Exclusion{Domain: domain, Group: group, Reason: reason}
	}

	iface := snap.Domains[domain].Interface
	grp := snap.Domains[domain].Groups[group]

	set := &Set{
		Domain:  domain,
		Group:   group,
		Program: g.Program,
		Grammar: g,
		Targets: make(map[string]render.Target, len(grp.Operations)),
	}

	for declIndex, opName := range grp.Order {
		decl := grp.Operations[opName]

		op, declared := iface[opName]
		if !declared {
			set.Skipped = append(set.Skipped, SkippedOp{
				Operation: opName,
				Reason:    fmt.Sprintf("not declared in the %q domain interface", domain),
			})
			continue
		}
		if decl.CmdFormat == "" {
			set.Skipped = append(set.Skipped, SkippedOp{
				Operation: opName,
				Reason:    "empty cmd_format",
			})
			continue
		}

		set.Targets[opName] = render.Target{
			CmdFormat:      decl.CmdFormat,
			FinalCmdFormat: decl.FinalCmdFormat,
		}
		warnUnknownFinalParams(logger, domain, group, op, decl.FinalCmdFormat)

		tmpl, err := template.Synthesize(op, declIndex, decl.CmdFormat, g)
		if err != nil {
			// Synthesis failures degrade per operation: the target above
			// still renders, but no template means the group cannot be a
			// match source for this operation.
			set.Skipped = append(set.Skipped, SkippedOp{Operation: opName, Reason: err.Error()})
			continue
		}
		set.Templates = append(set.Templates, tmpl)
	}

	logger.Debug("compiled operation group",
		"domain", domain,
		"group", group,
		"templates", len(set.Templates),
		"skipped", len(set.Skipped))
	return set, nil
}

// warnUnknownFinalParams flags final_cmd_format placeholders that are
// not operation parameters. Rendering passes them through verbatim, so
// this is a warning rather than a compile failure, but it almost always
// means a typo in the group file.
func warnUnknownFinalParams(logger *slog.Logger, domain, group string, op model.Operation, finalFormat string) {
	if finalFormat == "" {
		return
	}
	for _, param := range render.Placeholders(finalFormat) {
		if !op.HasParam(param) {
			logger.Warn("final_cmd_format references a parameter the operation does not declare",
				"domain", domain,
				"group", group,
				"operation", op.Name,
				"param", param)
		}
	}
}

// Fingerprint returns the configuration fingerprint the cache was
// built from.
func (c *Cache) Fingerprint() string {
	return c.fingerprint
}

// BuiltAt returns the build timestamp.
func (c *Cache) BuiltAt() time.Time {
	return c.builtAt
}

// Lookup returns the compiled set of one (domain, group). A group that
// was excluded from the build fails with an *ExcludedError carrying
// its recorded reason; an unknown pair fails with a *NotFoundError.
func (c *Cache) Lookup(domain, group string) (*Set, error) {
	if set, ok := c.sets[setKey(domain, group)]; ok {
		return set, nil
	}
	for _, excl := range c.excluded {
		if excl.Domain == domain && excl.Group == group {
			return nil, &ExcludedError{Exclusion: excl}
		}
	}
	return nil, &NotFoundError{Domain: domain, Group: group}
}

// LookupRenderTarget returns the command formats of one operation in
// one group. A group present in the cache but without the operation
// fails with a *NotSupportedError.
func (c *Cache) LookupRenderTarget(domain, group, operation string) (render.Target, error) {
	set, err := c.Lookup(domain, group)
	if err != nil {
		return render.Target{}, err
	}
	target, ok := set.Targets[operation]
	if !ok {
		return render.Target{}, &NotSupportedError{Domain: domain, Group: group, Operation: operation}
	}
	return target, nil
}

// Domains returns the domain names with at least one compiled set,
// sorted.
func (c *Cache) Domains() []string {
	seen := make(map[string]bool)
	var domains []string
	for _, set := range c.sets {
		if !seen[set.Domain] {
			seen[set.Domain] = true
			domains = append(domains, set.Domain)
		}
	}
	sort.Strings(domains)
	return domains
}

// Groups returns the compiled group names of one domain, sorted.
func (c *Cache) Groups(domain string) []string {
	var groups []string
	for _, set := range c.sets {
		if set.Domain == domain {
			groups = append(groups, set.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// Sets returns every compiled set, sorted by domain then group.
func (c *Cache) Sets() []*Set {
	sets := make([]*Set, 0, len(c.sets))
	for _, set := range c.sets {
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool {
		if sets[i].Domain != sets[j].Domain {
			return sets[i].Domain < sets[j].Domain
		}
		return sets[i].Group < sets[j].Group
	})
	return sets
}

// Excluded returns the groups omitted from the build, sorted by domain
// then group.
func (c *Cache) Excluded() []Exclusion {
	excluded := append([]Exclusion(nil), c.excluded...)
	sort.Slice(excluded, func(i, j int) bool {
		if excluded[i].Domain != excluded[j].Domain {
			return excluded[i].Domain < excluded[j].Domain
		}
		return excluded[i].Group < excluded[j].Group
	})
	return excluded
}
