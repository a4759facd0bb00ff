// Package cli — op.go implements the "cmdbridge op" command.
//
// op renders an abstract operation directly, skipping the parsing and
// matching stages of map. Parameter values come from repeatable
// --param name=value flags; bare trailing values are a shorthand that
// binds to the operation's only (unbound) parameter.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JohanChane/cmdbridge/internal/bridge"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// paramValues implements pflag.Value for the repeatable --param flag.
// Each occurrence parses as name=value; repeated names accumulate
// multiple values in order.
type paramValues struct {
	values map[string][]string
}

var _ pflag.Value = (*paramValues)(nil)

// String renders the accumulated bindings for help and debug output.
func (p *paramValues) String() string {
	if len(p.values) == 0 {
		return ""
	}
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		for _, value := range p.values[name] {
			parts = append(parts, name+"="+value)
		}
	}
	return strings.Join(parts, ",")
}

// Set parses one name=value occurrence.
func (p *paramValues) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	p.values[name] = append(p.values[name], value)
	return nil
}

// Type names the flag's value syntax in help output.
func (p *paramValues) Type() string {
	return "name=value"
}

// opFlags holds the flag values for the op command.
// These are bound to cobra flags in NewOpCommand.
type opFlags struct {
	domain string      // --domain: operation domain
	dest   string      // --dest-group: group the operation is rendered for
	params paramValues // --param: explicit parameter bindings
	edit   bool        // --edit: print and exit 113 for shell-wrapper injection
}

// NewOpCommand creates the "op" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewOpCommand() *cobra.Command {
	flags := &opFlags{}

	cmd := &cobra.Command{
		Use:   "op [flags] <operation> [value...]",
		Short: "Render an operation as the destination group's command",
		Long: `Render an abstract operation directly into the destination group's
command, without parsing any source command.

Parameter values bind with repeatable --param name=value flags. Bare
values after the operation name are a shorthand for operations with a
single parameter.

Examples:
  cmdbridge op install_remote vim git
  cmdbridge op -t apt update_index
  cmdbridge op search_remote --param query=editor`,

		// The operation name, then any number of shorthand values.
		Args: cobra.MinimumNArgs(1),

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd.Context(), args[0], args[1:], flags)
		},

		// The first positional completes to the domain's operations.
		ValidArgsFunction: completeOperations,
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "",
		"Operation domain (default: config default_domain)")
	cmd.Flags().StringVarP(&flags.dest, "dest-group", "t", "",
		"Destination group (default: config default_group)")
	cmd.Flags().Var(&flags.params, "param",
		"Bind one parameter value as name=value (repeatable)")
	cmd.Flags().BoolVar(&flags.edit, "edit", false,
		"Print the rendered command and exit 113 so a shell wrapper can inject it")

	registerGroupFlagCompletions(cmd)

	return cmd
}

// runOp is the main logic function for the op command.
func runOp(ctx context.Context, operation string, values []string, flags *opFlags) error {
	b, err := openBridge(ctx)
	if err != nil {
		return err
	}

	params, err := bindValues(b, flags, operation, values)
	if err != nil {
		return err
	}

	res, err := b.MapOperation(bridge.OpRequest{
		Domain:    flags.domain,
		Dest:      flags.dest,
		Operation: operation,
		Params:    params,
	})
	if err != nil {
		return err
	}

	printMapResult(res)

	if flags.edit {
		// Editor-inject contract, identical to map --edit.
		return &model.CLIError{Code: model.ExitEditorInject}
	}
	return nil
}

// bindValues merges the --param bindings with the bare shorthand
// values. Shorthand values need an unambiguous home: the operation's
// only parameter, or its only parameter still unbound.
func bindValues(b *bridge.Bridge, flags *opFlags, operation string, values []string) (map[string][]string, error) {
	params := flags.params.values
	if len(values) == 0 {
		return params, nil
	}

	op, err := b.Operation(flags.domain, operation)
	if err != nil {
		return nil, err
	}
	if len(op.Params) == 0 {
		return nil, model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("operation %q takes no parameters, got %d values", operation, len(values)),
		)
	}

	target := ""
	if len(op.Params) == 1 {
		target = op.Params[0]
	} else {
		var unbound []string
		for _, name := range op.Params {
			if _, ok := params[name]; !ok {
				unbound = append(unbound, name)
			}
		}
		if len(unbound) == 1 {
			target = unbound[0]
		}
	}
	if target == "" {
		return nil, model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("operation %q takes parameters %s; binding bare values is ambiguous, use --param name=value",
				operation, strings.Join(op.Params, ", ")),
		)
	}

	if params == nil {
		params = make(map[string][]string)
	}
	params[target] = append(params[target], values...)
	return params, nil
}
