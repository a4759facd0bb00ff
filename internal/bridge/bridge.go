// Package bridge orchestrates the full mapping pipeline: resolve the
// domain and groups, tokenize the input command under the source
// group's grammar, build and match its command tree against the
// compiled templates, and render the winning operation into the
// destination group's command format.
//
// The bridge works purely on an already loaded configuration snapshot
// and an already built cache; it never touches the filesystem, which
// keeps both mapping entry points synchronous and cheap to test.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/JohanChane/cmdbridge/internal/cache"
	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/matcher"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/render"
	"github.com/JohanChane/cmdbridge/internal/tokenizer"
	"github.com/JohanChane/cmdbridge/internal/tree"
)

// Bridge maps commands and operations between groups of one domain.
type Bridge struct {
	snap   *config.Snapshot
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a Bridge over a loaded snapshot and a built cache. A nil
// logger falls back to slog.Default().
func New(snap *config.Snapshot, c *cache.Cache, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{snap: snap, cache: c, logger: logger}
}

// MapRequest describes one command mapping. Argv is the foreign
// command split into words, program name first. Empty Domain and Dest
// fall back to the configured defaults; an empty Source is detected
// from Argv's program word.
type MapRequest struct {
	Domain string
	Source string
	Dest   string
	Argv   []string
}

// OpRequest describes one direct operation rendering. Params holds the
// values to substitute, keyed by parameter name.
type OpRequest struct {
	Domain    string
	Dest      string
	Operation string
	Params    map[string][]string
}

// Result is a successful mapping. Source is empty when the operation
// was given directly instead of recovered from a command.
type Result struct {
	// Domain is the resolved operation domain.
	Domain string `json:"domain"`

	// Source is the group the input command was parsed under.
	Source string `json:"source,omitempty"`

	// Dest is the group the command was rendered for.
	Dest string `json:"dest"`

	// Operation is the matched or requested operation name.
	Operation string `json:"operation"`

	// Params holds the bound parameter values.
	Params map[string][]string `json:"params,omitempty"`

	// Command is the rendered destination command line.
	Command string `json:"command"`
}

// MapCommand translates a foreign command into the destination group's
// equivalent. The pipeline is tokenize, build, match, render; each
// stage failure carries the exit code that names it.
func (b *Bridge) MapCommand(req MapRequest) (*Result, error) {
	if len(req.Argv) == 0 {
		return nil, model.NewCLIError(model.ExitGeneralError, "no command given")
	}

	domain, err := b.resolveDomain(req.Domain)
	if err != nil {
		return nil, err
	}
	dest, err := b.resolveDest(domain, req.Dest)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source, err = b.detectSource(domain, req.Argv)
	} else {
		err = b.checkGroup(domain, source, "source")
	}
	if err != nil {
		return nil, err
	}

	set, err := b.cache.Lookup(domain, source)
	if err != nil {
		return nil, asCLIError(err)
	}

	command := strings.Join(req.Argv, " ")
	tokens, err := tokenizer.Tokenize(req.Argv, set.Grammar)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitNotRecognized,
			fmt.Sprintf("%q is not a recognized %s command", command, source),
			err,
		)
	}
	node, err := tree.Build(tokens, set.Grammar)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitNotRecognized,
			fmt.Sprintf("%q is not a recognized %s command", command, source),
			err,
		)
	}
	if b.logger.Enabled(context.Background(), slog.LevelDebug) {
		b.logger.Debug("built command tree",
			"source", source,
			"tokens", len(tokens),
			"tree", spew.Sdump(node),
		)
	}

	res, err := matcher.Match(node, set.Templates)
	if err != nil {
		var ambErr *matcher.AmbiguityError
		if errors.As(err, &ambErr) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("%s/%s declares ambiguous operations", domain, source),
				err,
			)
		}
		return nil, err
	}
	if !res.Matched {
		return nil, model.NewCLIError(
			model.ExitNoMatch,
			fmt.Sprintf("no operation in %s/%s matches %q", domain, source, command),
		)
	}
	b.logger.Debug("matched operation",
		"domain", domain,
		"source", source,
		"operation", res.Operation,
	)

	rendered, err := b.renderOperation(domain, dest, res.Operation, res.Params)
	if err != nil {
		return nil, err
	}
	return &Result{
		Domain:    domain,
		Source:    source,
		Dest:      dest,
		Operation: res.Operation,
		Params:    res.Params,
		Command:   rendered,
	}, nil
}

// MapOperation renders an operation directly, skipping the parsing and
// matching stages.
func (b *Bridge) MapOperation(req OpRequest) (*Result, error) {
	domain, err := b.resolveDomain(req.Domain)
	if err != nil {
		return nil, err
	}
	dest, err := b.resolveDest(domain, req.Dest)
	if err != nil {
		return nil, err
	}

	if _, err := b.Operation(domain, req.Operation); err != nil {
		return nil, err
	}

	rendered, err := b.renderOperation(domain, dest, req.Operation, req.Params)
	if err != nil {
		return nil, err
	}
	return &Result{
		Domain:    domain,
		Dest:      dest,
		Operation: req.Operation,
		Params:    req.Params,
		Command:   rendered,
	}, nil
}

// Operation returns the interface declaration of one operation in a
// resolved domain.
func (b *Bridge) Operation(domain, name string) (model.Operation, error) {
	resolved, err := b.resolveDomain(domain)
	if err != nil {
		return model.Operation{}, err
	}
	d := b.snap.Domain(resolved)
	op, ok := d.Interface[name]
	if !ok {
		msg := fmt.Sprintf("unknown operation %q in domain %q", name, resolved)
		if hint := closest(name, operationNames(d)); hint != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		return model.Operation{}, model.NewCLIError(model.ExitGeneralError, msg)
	}
	return op, nil
}

// renderOperation resolves the destination format and substitutes the
// bound values into it.
func (b *Bridge) renderOperation(domain, dest, operation string, params map[string][]string) (string, error) {
	target, err := b.cache.LookupRenderTarget(domain, dest, operation)
	if err != nil {
		return "", asCLIError(err)
	}

	op := b.snap.Domain(domain).Interface[operation]
	format := target.Format()
	for _, name := range render.Placeholders(format) {
		if _, bound := params[name]; bound || op.HasParam(name) {
			continue
		}
		b.logger.Warn("format references an undeclared parameter, leaving it in place",
			"domain", domain,
			"group", dest,
			"operation", operation,
			"param", name,
		)
	}

	rendered, err := render.Render(format, params, op)
	if err != nil {
		var missErr *render.MissingParameterError
		if errors.As(err, &missErr) {
			return "", model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("cannot render operation %q for %s/%s", operation, domain, dest),
				err,
			)
		}
		return "", err
	}
	return rendered, nil
}

// resolveDomain applies the configured default and verifies the domain
// exists.
func (b *Bridge) resolveDomain(name string) (string, error) {
	if name == "" {
		name = b.snap.Global.DefaultDomain
	}
	if name == "" {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			"no domain given and no default_domain configured",
		)
	}
	if b.snap.Domain(name) == nil {
		msg := fmt.Sprintf("unknown domain %q", name)
		if hint := closest(name, b.snap.DomainNames()); hint != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		return "", model.NewCLIError(model.ExitGeneralError, msg)
	}
	return name, nil
}

// resolveDest applies the configured default destination group and
// verifies it exists in the domain. Only the destination has a
// configured fallback; the source is always explicit or detected.
func (b *Bridge) resolveDest(domain, name string) (string, error) {
	if name == "" {
		name = b.snap.Global.DefaultGroup
	}
	if name == "" {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			"no destination group given and no default_group configured",
		)
	}
	if err := b.checkGroup(domain, name, "destination"); err != nil {
		return "", err
	}
	return name, nil
}

// checkGroup verifies a group exists in the domain, suggesting the
// closest name when it does not.
func (b *Bridge) checkGroup(domain, name, role string) error {
	if b.snap.Group(domain, name) != nil {
		return nil
	}
	msg := fmt.Sprintf("unknown %s group %q in domain %q", role, name, domain)
	if hint := closest(name, b.snap.GroupNames(domain)); hint != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}
	return model.NewCLIError(model.ExitGeneralError, msg)
}

// detectSource recovers the source group from the command itself. By
// convention a group is named after the program it wraps, so the
// command's program word names its own group.
func (b *Bridge) detectSource(domain string, argv []string) (string, error) {
	program := argv[0]
	if b.snap.Group(domain, program) != nil {
		b.logger.Debug("detected source group",
			"domain", domain,
			"group", program,
		)
		return program, nil
	}
	msg := fmt.Sprintf("cannot detect the source group of %q in domain %q; pass --source-group", program, domain)
	if hint := closest(program, b.snap.GroupNames(domain)); hint != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}
	return "", model.NewCLIError(model.ExitGeneralError, msg)
}

// asCLIError translates cache lookup failures into exit-coded errors.
func asCLIError(err error) error {
	var exclErr *cache.ExcludedError
	if errors.As(err, &exclErr) {
		return model.NewCLIError(model.ExitConfigError, err.Error())
	}
	var nsErr *cache.NotSupportedError
	if errors.As(err, &nsErr) {
		return model.NewCLIError(model.ExitNotSupported, err.Error())
	}
	var nfErr *cache.NotFoundError
	if errors.As(err, &nfErr) {
		return model.NewCLIError(
			model.ExitCacheError,
			err.Error()+"; run `cmdbridge cache refresh`",
		)
	}
	return err
}

// closest returns the best fuzzy match for input among candidates, or
// an empty string when nothing is close.
func closest(input string, candidates []string) string {
	ranks := fuzzy.RankFindFold(input, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// operationNames returns a domain's declared operation names, sorted.
func operationNames(d *config.Domain) []string {
	names := make([]string, 0, len(d.Interface))
	for name := range d.Interface {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
