package tokenizer

import "fmt"

// UnknownTokenError reports an argv word the active grammar scope does
// not declare: an undeclared option spelling, an undeclared bundle
// letter, or a bare word in a scope with no role for it.
type UnknownTokenError struct {
	// Program is the grammar the command was tokenized under.
	Program string

	// Scope is the scope path the lookup failed in ("apt install").
	Scope string

	// Word is the offending word as the user typed it. For bundle
	// letters this is the single-letter spelling ("-z").
	Word string
}

// Error satisfies the error interface.
func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown token %q in scope %q", e.Word, e.Scope)
}

// ArgumentOrderError reports declared words in an arrangement the
// grammar cannot accept: an option missing its adjacent value, a
// value-taking letter in the middle of a bundle, a value handed to a
// flag, or more positional values than the scope allows.
type ArgumentOrderError struct {
	// Program is the grammar the command was tokenized under.
	Program string

	// Scope is the scope path the defect was found in.
	Scope string

	// Option names the option involved, when one is.
	Option string

	// Detail is the human-readable description.
	Detail string
}

// Error satisfies the error interface.
func (e *ArgumentOrderError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("argument order in scope %q: option %q %s", e.Scope, e.Option, e.Detail)
	}
	return fmt.Sprintf("argument order in scope %q: %s", e.Scope, e.Detail)
}
