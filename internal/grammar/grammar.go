// Package grammar defines the declarative command-line grammar model:
// which options a program accepts, how many values each one takes, and
// how subcommands nest. A Grammar drives both tokenization of live
// commands and synthesis of reference trees from command formats.
//
// Grammars arrive from configuration files (see internal/config) in an
// unresolved form: subcommand declarations may carry an id anchor and
// reference another declaration's arguments and subcommands through
// include_arguments_and_subcmds. Resolve materializes those references
// into plain deep-copied declarations; Validate then enforces the
// structural rules a grammar must satisfy before any parsing happens.
package grammar

import (
	"fmt"
	"strings"

	"github.com/JohanChane/cmdbridge/internal/model"
)

// Argument declares one argument a program scope accepts.
// An empty Options list makes the argument positional.
type Argument struct {
	// Name identifies the argument. For positionals it labels the
	// grouped values; for options it is the name placeholders are looked
	// up by during template synthesis.
	Name string

	// Options lists the accepted spellings ("-S", "--sync"). Empty for
	// positional arguments.
	Options []string

	// Cardinality is the declared nargs of the argument.
	Cardinality model.Cardinality

	// Required marks arguments the program cannot be invoked without.
	Required bool

	// Description is optional free-form help text.
	Description string
}

// IsPositional reports whether the argument consumes bare words
// rather than being introduced by an option.
func (a *Argument) IsPositional() bool {
	return len(a.Options) == 0
}

// IsFlag reports whether the argument is a zero-value option.
func (a *Argument) IsFlag() bool {
	return !a.IsPositional() && a.Cardinality == model.CardinalityZero
}

// HasAlias reports whether word is one of the argument's spellings.
func (a *Argument) HasAlias(word string) bool {
	for _, opt := range a.Options {
		if opt == word {
			return true
		}
	}
	return false
}

// PrimaryName returns the canonical name the argument is known by after
// tokenization: the first long option if one exists, else the first
// alias, else the argument name (positionals). Normalizing both live
// commands and templates to primary names is what makes "-S" and
// "--sync" compare equal during matching.
func (a *Argument) PrimaryName() string {
	for _, opt := range a.Options {
		if strings.HasPrefix(opt, "--") {
			return opt
		}
	}
	if len(a.Options) > 0 {
		return a.Options[0]
	}
	return a.Name
}

// Subcommand declares one nested scope of a grammar.
type Subcommand struct {
	// Name is the canonical subcommand name.
	Name string

	// Aliases lists alternative spellings that normalize to Name.
	Aliases []string

	// ID optionally anchors this declaration for reuse by other
	// declarations via IncludeRef.
	ID string

	// IncludeRef names the ID of another declaration whose arguments and
	// subcommands this one inherits. Cleared by Resolve.
	IncludeRef string

	// Description is optional free-form help text.
	Description string

	// Arguments declares the scope's own arguments. When empty and
	// IncludeRef is set, the referenced declaration's arguments are
	// inherited.
	Arguments []Argument

	// Subcommands declares nested scopes, with the same inheritance rule.
	Subcommands []Subcommand
}

// Matches reports whether word is the subcommand's name or an alias.
func (s *Subcommand) Matches(word string) bool {
	if word == s.Name {
		return true
	}
	for _, alias := range s.Aliases {
		if alias == word {
			return true
		}
	}
	return false
}

// Grammar is the complete declarative grammar of one program.
type Grammar struct {
	// Style selects the tokenization rule set.
	Style model.ParserStyle

	// Program is the program word the grammar describes ("pacman").
	Program string

	// Arguments declares the root scope's arguments.
	Arguments []Argument

	// Subcommands declares the root scope's subcommands. Always empty
	// for getopt grammars.
	Subcommands []Subcommand
}

// Scope is a view over one nesting level of a grammar: the root or any
// subcommand. Tokenizers walk scopes as they descend the command line.
type Scope struct {
	Arguments   []Argument
	Subcommands []Subcommand
}

// RootScope returns the grammar's top-level scope.
func (g *Grammar) RootScope() Scope {
	return Scope{Arguments: g.Arguments, Subcommands: g.Subcommands}
}

// Scope returns the view over the subcommand's own nesting level.
func (s *Subcommand) Scope() Scope {
	return Scope{Arguments: s.Arguments, Subcommands: s.Subcommands}
}

// FindOption returns the argument declaring word among its option
// spellings, or nil.
func (sc Scope) FindOption(word string) *Argument {
	for i := range sc.Arguments {
		if sc.Arguments[i].HasAlias(word) {
			return &sc.Arguments[i]
		}
	}
	return nil
}

// FindSubcommand returns the subcommand whose name or alias is word,
// or nil.
func (sc Scope) FindSubcommand(word string) *Subcommand {
	for i := range sc.Subcommands {
		if sc.Subcommands[i].Matches(word) {
			return &sc.Subcommands[i]
		}
	}
	return nil
}

// Positional returns the scope's positional argument declaration, or
// nil. Validate guarantees a scope declares at most one.
func (sc Scope) Positional() *Argument {
	for i := range sc.Arguments {
		if sc.Arguments[i].IsPositional() {
			return &sc.Arguments[i]
		}
	}
	return nil
}

// FindArgumentByName returns the argument (option or positional) whose
// Name is name, searching this scope only. Template synthesis uses it to
// look up a placeholder's declared cardinality.
func (sc Scope) FindArgumentByName(name string) *Argument {
	for i := range sc.Arguments {
		if sc.Arguments[i].Name == name {
			return &sc.Arguments[i]
		}
	}
	return nil
}

// Resolve materializes every include_arguments_and_subcmds reference in
// the grammar.
//
// Algorithm:
//  1. Walk the subcommand tree and collect every declaration carrying an
//     id into an anchor table (duplicate ids are a ConfigError).
//  2. Depth-first resolve each declaration: a declaration with an
//     IncludeRef first forces its referenced anchor to resolve, then
//     inherits the anchor's arguments, subcommands and description for
//     any of those fields it does not declare itself. Inherited subtrees
//     are deep copies, so later mutation of one scope never aliases
//     another.
//  3. A reference chain that revisits a declaration currently being
//     resolved is a cycle and fails with a ConfigError naming the id.
//
// Resolve is idempotent: resolved declarations have their IncludeRef
// cleared and are skipped on re-entry.
func (g *Grammar) Resolve() error {
	anchors := make(map[string]*Subcommand)
	if err := collectAnchors(g.Program, g.Subcommands, anchors); err != nil {
		return err
	}

	visiting := make(map[*Subcommand]bool)
	for i := range g.Subcommands {
		if err := resolveSubcommand(g.Program, &g.Subcommands[i], anchors, visiting); err != nil {
			return err
		}
	}
	return nil
}

// collectAnchors indexes id-carrying declarations, recursing through the
// whole declaration tree.
func collectAnchors(program string, subs []Subcommand, anchors map[string]*Subcommand) error {
	for i := range subs {
		sub := &subs[i]
		if sub.ID != "" {
			if _, exists := anchors[sub.ID]; exists {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("duplicate subcommand id %q", sub.ID)}
			}
			anchors[sub.ID] = sub
		}
		if err := collectAnchors(program, sub.Subcommands, anchors); err != nil {
			return err
		}
	}
	return nil
}

// resolveSubcommand resolves one declaration and then its children.
func resolveSubcommand(program string, sub *Subcommand, anchors map[string]*Subcommand, visiting map[*Subcommand]bool) error {
	if sub.IncludeRef != "" {
		target, ok := anchors[sub.IncludeRef]
		if !ok {
			return &ConfigError{Program: program, Detail: fmt.Sprintf("unresolved include reference %q", sub.IncludeRef)}
		}
		if visiting[target] {
			return &ConfigError{Program: program, Detail: fmt.Sprintf("include reference cycle through id %q", sub.IncludeRef)}
		}

		visiting[sub] = true
		if err := resolveSubcommand(program, target, anchors, visiting); err != nil {
			return err
		}
		delete(visiting, sub)

		// Own declarations take precedence; only absent fields inherit.
		if len(sub.Arguments) == 0 {
			sub.Arguments = copyArguments(target.Arguments)
		}
		if len(sub.Subcommands) == 0 {
			sub.Subcommands = copySubcommands(target.Subcommands)
		}
		if sub.Description == "" {
			sub.Description = target.Description
		}
		sub.IncludeRef = ""
	}

	visiting[sub] = true
	defer delete(visiting, sub)
	for i := range sub.Subcommands {
		if err := resolveSubcommand(program, &sub.Subcommands[i], anchors, visiting); err != nil {
			return err
		}
	}
	return nil
}

// copyArguments deep-copies an argument list.
func copyArguments(args []Argument) []Argument {
	if len(args) == 0 {
		return nil
	}
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = a
		out[i].Options = append([]string(nil), a.Options...)
	}
	return out
}

// copySubcommands deep-copies a subcommand tree. Anchored ids are not
// carried into copies: an id identifies the declaration site, not its
// expansions.
func copySubcommands(subs []Subcommand) []Subcommand {
	if len(subs) == 0 {
		return nil
	}
	out := make([]Subcommand, len(subs))
	for i, s := range subs {
		out[i] = s
		out[i].ID = ""
		out[i].Aliases = append([]string(nil), s.Aliases...)
		out[i].Arguments = copyArguments(s.Arguments)
		out[i].Subcommands = copySubcommands(s.Subcommands)
	}
	return out
}

// Validate enforces the structural rules of a resolved grammar:
//
//   - the style must be valid and the program word non-empty
//   - getopt grammars have no subcommands (the style has no scope
//     descent)
//   - a scope declares at most one positional argument, and never both
//     a positional and subcommands (a bare word would be undecidable —
//     AmbiguousGrammarError)
//   - subcommand names and aliases are unique within their scope, as are
//     option spellings
//   - positional arguments take at least one value
//
// Validate assumes Resolve has run; an unresolved IncludeRef fails.
func (g *Grammar) Validate() error {
	if !g.Style.IsValid() {
		return &ConfigError{Program: g.Program, Detail: fmt.Sprintf("invalid parser style %q", g.Style.String())}
	}
	if g.Program == "" {
		return &ConfigError{Detail: "grammar is missing a program name"}
	}
	if g.Style == model.StyleGetopt && len(g.Subcommands) > 0 {
		return &ConfigError{Program: g.Program, Detail: "getopt grammars do not support sub_commands"}
	}
	return validateScope(g.Program, g.Program, g.RootScope())
}

// validateScope checks one nesting level and recurses into subcommands.
// scopePath is a human-readable location like "docker container" used in
// error messages.
func validateScope(program, scopePath string, sc Scope) error {
	positionals := 0
	seenOptions := make(map[string]string)
	for i := range sc.Arguments {
		arg := &sc.Arguments[i]
		if !arg.Cardinality.IsValid() {
			return &ConfigError{Program: program, Detail: fmt.Sprintf("argument %q in scope %q has invalid nargs %q", arg.Name, scopePath, arg.Cardinality)}
		}
		if arg.IsPositional() {
			positionals++
			if arg.Name == "" {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("positional argument in scope %q is missing a name", scopePath)}
			}
			if !arg.Cardinality.TakesValue() {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("positional argument %q in scope %q cannot have nargs \"0\"", arg.Name, scopePath)}
			}
			continue
		}
		for _, opt := range arg.Options {
			if !strings.HasPrefix(opt, "-") {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("option spelling %q in scope %q must start with \"-\"", opt, scopePath)}
			}
			if owner, dup := seenOptions[opt]; dup {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("option spelling %q in scope %q is declared by both %q and %q", opt, scopePath, owner, arg.Name)}
			}
			seenOptions[opt] = arg.Name
		}
	}
	if positionals > 1 {
		return &ConfigError{Program: program, Detail: fmt.Sprintf("scope %q declares more than one positional argument", scopePath)}
	}
	if positionals > 0 && len(sc.Subcommands) > 0 {
		return &AmbiguousGrammarError{Program: program, Scope: scopePath}
	}

	seenNames := make(map[string]string)
	for i := range sc.Subcommands {
		sub := &sc.Subcommands[i]
		if sub.IncludeRef != "" {
			return &ConfigError{Program: program, Detail: fmt.Sprintf("subcommand %q in scope %q has an unresolved include reference", sub.Name, scopePath)}
		}
		if sub.Name == "" {
			return &ConfigError{Program: program, Detail: fmt.Sprintf("subcommand in scope %q is missing a name", scopePath)}
		}
		for _, word := range append([]string{sub.Name}, sub.Aliases...) {
			if owner, dup := seenNames[word]; dup {
				return &ConfigError{Program: program, Detail: fmt.Sprintf("subcommand word %q in scope %q is claimed by both %q and %q", word, scopePath, owner, sub.Name)}
			}
			seenNames[word] = sub.Name
		}
		if err := validateScope(program, scopePath+" "+sub.Name, sub.Scope()); err != nil {
			return err
		}
	}
	return nil
}
