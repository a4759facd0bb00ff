package grammar

import "fmt"

// ConfigError describes a defect in grammar configuration: a missing
// section, an unresolved or cyclic include reference, a duplicate
// declaration, an unsupported nargs form. Configuration loading and
// grammar validation both report through this type.
type ConfigError struct {
	// Program names the grammar the defect was found in. May be empty
	// for file-level problems discovered before a program is known.
	Program string

	// Detail is the human-readable defect description.
	Detail string
}

// Error satisfies the error interface.
func (e *ConfigError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("grammar config: %s", e.Detail)
	}
	return fmt.Sprintf("grammar config for %q: %s", e.Program, e.Detail)
}

// AmbiguousGrammarError reports a grammar scope that declares both
// subcommands and a positional argument. A bare word in such a scope
// could be either, so the grammar is rejected at compile time rather
// than guessed at parse time.
type AmbiguousGrammarError struct {
	// Program names the grammar.
	Program string

	// Scope is the path of the offending scope ("docker container").
	Scope string
}

// Error satisfies the error interface.
func (e *AmbiguousGrammarError) Error() string {
	return fmt.Sprintf("ambiguous grammar for %q: scope %q declares both subcommands and a positional argument", e.Program, e.Scope)
}
